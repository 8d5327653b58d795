package models

import (
	"time"

	"github.com/google/uuid"
)

// Room statuses
const (
	RoomStatusOpen   = "open"
	RoomStatusClosed = "closed"
)

type Room struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	HostID            uuid.UUID  `json:"host_id"`
	Capacity          int        `json:"capacity"`
	DurationMinutes   int        `json:"duration_minutes"`
	Status            string     `json:"status"`
	TotalStudySeconds int64      `json:"total_study_seconds"`
	CreatedAt         time.Time  `json:"created_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

type CreateRoomRequest struct {
	Name            string `json:"name"`
	Capacity        int    `json:"capacity"`
	DurationMinutes int    `json:"duration_minutes"`
}
