package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type RoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

func (r *RoomRepo) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (name, host_id, capacity, duration_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, total_study_seconds, created_at
	`
	return r.pool.QueryRow(ctx, query, room.Name, room.HostID, room.Capacity, room.DurationMinutes).Scan(
		&room.ID,
		&room.Status,
		&room.TotalStudySeconds,
		&room.CreatedAt,
	)
}

func (r *RoomRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room := &models.Room{}
	query := `
		SELECT id, name, host_id, capacity, duration_minutes, status, total_study_seconds, created_at, closed_at
		FROM rooms
		WHERE id = $1
	`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&room.ID, &room.Name, &room.HostID, &room.Capacity, &room.DurationMinutes,
		&room.Status, &room.TotalStudySeconds, &room.CreatedAt, &room.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (r *RoomRepo) ListOpen(ctx context.Context) ([]*models.Room, error) {
	query := `
		SELECT id, name, host_id, capacity, duration_minutes, status, total_study_seconds, created_at, closed_at
		FROM rooms
		WHERE status = 'open'
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(
			&room.ID, &room.Name, &room.HostID, &room.Capacity, &room.DurationMinutes,
			&room.Status, &room.TotalStudySeconds, &room.CreatedAt, &room.ClosedAt,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepo) Close(ctx context.Context, id, hostID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE rooms
		SET status = 'closed', closed_at = NOW()
		WHERE id = $1
		  AND host_id = $2
		  AND status = 'open'
	`, id, hostID)
	return err
}

// RequiredOccupancy is the study's configured participant count, the
// threshold at which the room counts as full. Implements
// presence.RoomConfigSource.
func (r *RoomRepo) RequiredOccupancy(ctx context.Context, roomID uuid.UUID) (int, error) {
	var capacity int
	err := r.pool.QueryRow(ctx, `
		SELECT capacity FROM rooms WHERE id = $1 AND status = 'open'
	`, roomID).Scan(&capacity)
	if err != nil {
		return 0, err
	}
	return capacity, nil
}
