package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

// OccupancyTimer runs one wall-clock study timer per room. Each room is a
// two-state machine, idle or running; duplicate Start/Stop deliveries from
// racing edge triggers collapse to no-ops.
type OccupancyTimer struct {
	mu      sync.Mutex
	now     func() time.Time
	running map[uuid.UUID]time.Time
}

func NewOccupancyTimer() *OccupancyTimer {
	return &OccupancyTimer{
		now:     time.Now,
		running: make(map[uuid.UUID]time.Time),
	}
}

// Start transitions the room idle -> running. Returns false without side
// effects when the room is already running.
func (t *OccupancyTimer) Start(roomID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.running[roomID]; exists {
		return false
	}
	t.running[roomID] = t.now()
	return true
}

// Stop transitions the room running -> idle and returns the completed
// duration record. Returns nil when the room was not running, e.g. a
// duplicate leave trigger or a leave after the room was torn down.
func (t *OccupancyTimer) Stop(roomID uuid.UUID) *models.StudyDurationRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	startedAt, exists := t.running[roomID]
	if !exists {
		return nil
	}
	delete(t.running, roomID)

	return &models.StudyDurationRecord{
		RoomID:    roomID,
		StartedAt: startedAt,
		EndedAt:   t.now(),
	}
}

// Running reports whether the room's timer is currently running.
func (t *OccupancyTimer) Running(roomID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.running[roomID]
	return exists
}
