package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyroom-backend/internal/models"
)

func alarmChannel(userID uuid.UUID) string {
	return "alarm:user:" + userID.String()
}

// RedisAlarmPublisher pushes alarm payloads onto per-user Redis channels.
// Hubs in every process subscribe to the channels of their connected
// users, so an alarm reaches all of a user's devices wherever they landed.
type RedisAlarmPublisher struct {
	redis *redis.Client
}

func NewRedisAlarmPublisher(redisClient *redis.Client) *RedisAlarmPublisher {
	return &RedisAlarmPublisher{redis: redisClient}
}

func (p *RedisAlarmPublisher) PublishAlarm(ctx context.Context, userID uuid.UUID, alarm models.AlarmMessage) error {
	data, err := json.Marshal(alarm)
	if err != nil {
		return fmt.Errorf("marshal alarm: %w", err)
	}
	return p.redis.Publish(ctx, alarmChannel(userID), data).Err()
}
