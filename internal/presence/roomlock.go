package presence

import (
	"sync"

	"github.com/google/uuid"
)

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// roomLocks hands out one exclusive lock per room key so lifecycle events
// for the same room serialize while unrelated rooms proceed in parallel.
// Entries are reference counted and dropped when the last holder releases,
// keeping the table bounded by the number of rooms with in-flight events.
type roomLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*roomLock
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[uuid.UUID]*roomLock)}
}

// lock acquires the room's lock and returns its release func.
func (l *roomLocks) lock(roomID uuid.UUID) func() {
	l.mu.Lock()
	entry, exists := l.locks[roomID]
	if !exists {
		entry = &roomLock{}
		l.locks[roomID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}
