package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyDurationRecord is one completed stretch of full-occupancy study time
// for a room. It is immutable once built by the occupancy timer.
type StudyDurationRecord struct {
	RoomID    uuid.UUID `json:"room_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

func (r StudyDurationRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// StudyTime is a persisted row of the room's study-time history.
type StudyTime struct {
	ID              uuid.UUID `json:"id"`
	RoomID          uuid.UUID `json:"room_id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}
