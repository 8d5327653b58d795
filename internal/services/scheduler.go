package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyroom-backend/internal/expiry"
)

// RoomScheduler arms a room's lifecycle alarms by writing two TTL keys to
// Redis when the room opens. Redis expires them on its own clock; the
// expiry listener turns the expirations back into alarm signals. The
// near-expiry key fires one lead interval before the end key.
type RoomScheduler struct {
	redis *redis.Client
	lead  time.Duration
}

func NewRoomScheduler(redisClient *redis.Client, lead time.Duration) *RoomScheduler {
	return &RoomScheduler{redis: redisClient, lead: lead}
}

func (s *RoomScheduler) ScheduleRoom(ctx context.Context, roomID uuid.UUID, duration time.Duration) error {
	if duration > s.lead {
		err := s.redis.Set(ctx, expiry.AlarmKeyPrefix+roomID.String(), "1", duration-s.lead).Err()
		if err != nil {
			return fmt.Errorf("schedule near-expiry alarm for room %s: %w", roomID, err)
		}
	}
	if err := s.redis.Set(ctx, expiry.EndKeyPrefix+roomID.String(), "1", duration).Err(); err != nil {
		return fmt.Errorf("schedule expiry for room %s: %w", roomID, err)
	}
	return nil
}

// CancelRoom drops both lifecycle keys. Deleting a key does not emit an
// expired event, so closing a room early produces no alarms.
func (s *RoomScheduler) CancelRoom(ctx context.Context, roomID uuid.UUID) error {
	return s.redis.Del(ctx,
		expiry.AlarmKeyPrefix+roomID.String(),
		expiry.EndKeyPrefix+roomID.String(),
	).Err()
}
