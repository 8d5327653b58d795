package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type StudyTimeRepo struct {
	pool *pgxpool.Pool
}

func NewStudyTimeRepo(pool *pgxpool.Pool) *StudyTimeRepo {
	return &StudyTimeRepo{pool: pool}
}

// RecordStudyTime appends one duration record to the room's history and
// adds it to the running total, atomically. Implements
// presence.DurationSink.
func (r *StudyTimeRepo) RecordStudyTime(ctx context.Context, rec models.StudyDurationRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seconds := int64(rec.Duration().Seconds())

	_, err = tx.Exec(ctx, `
		INSERT INTO study_times (room_id, started_at, ended_at, duration_seconds)
		VALUES ($1, $2, $3, $4)
	`, rec.RoomID, rec.StartedAt, rec.EndedAt, seconds)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE rooms
		SET total_study_seconds = total_study_seconds + $2
		WHERE id = $1
	`, rec.RoomID, seconds)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *StudyTimeRepo) HistoryForRoom(ctx context.Context, roomID uuid.UUID) ([]*models.StudyTime, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, started_at, ended_at, duration_seconds, created_at
		FROM study_times
		WHERE room_id = $1
		ORDER BY started_at DESC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*models.StudyTime
	for rows.Next() {
		st := &models.StudyTime{}
		if err := rows.Scan(&st.ID, &st.RoomID, &st.StartedAt, &st.EndedAt, &st.DurationSeconds, &st.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, st)
	}
	return history, rows.Err()
}

func (r *StudyTimeRepo) TotalForRoom(ctx context.Context, roomID uuid.UUID) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT total_study_seconds FROM rooms WHERE id = $1
	`, roomID).Scan(&total)
	return total, err
}
