package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Session pairs a live connection with the user and room it belongs to.
type Session struct {
	ConnectionID string
	UserID       uuid.UUID
	RoomID       uuid.UUID
}

// SessionDirectory is the bidirectional connection-id <-> (user, room) map.
// It owns nothing but the map itself; membership and timers are driven
// elsewhere from its return values.
type SessionDirectory struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{sessions: make(map[string]Session)}
}

func (d *SessionDirectory) Register(connectionID string, userID, roomID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.sessions[connectionID]; exists {
		return ErrDuplicateConnection
	}
	d.sessions[connectionID] = Session{ConnectionID: connectionID, UserID: userID, RoomID: roomID}
	return nil
}

func (d *SessionDirectory) Resolve(connectionID string) (Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sess, exists := d.sessions[connectionID]
	if !exists {
		return Session{}, ErrUnknownConnection
	}
	return sess, nil
}

func (d *SessionDirectory) Remove(connectionID string) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sess, exists := d.sessions[connectionID]
	if !exists {
		return Session{}, ErrUnknownConnection
	}
	delete(d.sessions, connectionID)
	return sess, nil
}

func (d *SessionDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
