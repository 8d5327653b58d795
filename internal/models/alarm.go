package models

import "github.com/google/uuid"

type AlarmKind string

const (
	AlarmNearExpiry AlarmKind = "NEAR_EXPIRY"
	AlarmExpired    AlarmKind = "EXPIRED"
)

// AlarmEvent is built from a point-in-time membership snapshot when an
// expiry signal arrives. It is transient and never persisted.
type AlarmEvent struct {
	RoomID     uuid.UUID   `json:"room_id"`
	Kind       AlarmKind   `json:"kind"`
	Recipients []uuid.UUID `json:"recipients"`
}

// AlarmMessage is the payload delivered to each recipient's channel.
type AlarmMessage struct {
	Kind    AlarmKind `json:"kind"`
	RoomID  uuid.UUID `json:"room_id"`
	Message string    `json:"message"`
}
