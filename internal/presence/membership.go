package presence

import (
	"sync"

	"github.com/google/uuid"
)

// roomState tracks the live connections of one room. The occupancy
// threshold is fixed at room creation and never changes afterwards.
type roomState struct {
	required int
	members  map[uuid.UUID]map[string]struct{}
	total    int
}

// RoomMembership holds the per-room sets of (user -> connection ids) and
// computes the edge-triggered threshold transitions. Counting is by
// connection, not by distinct user: a user with two tabs open contributes
// two toward the threshold, matching how raw sessions were always counted.
//
// The mutex only protects the map structure; linearizing join/leave per
// room against their timer side effects is the Coordinator's job.
type RoomMembership struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*roomState
}

func NewRoomMembership() *RoomMembership {
	return &RoomMembership{rooms: make(map[uuid.UUID]*roomState)}
}

// Join adds the connection to the user's set under the room, creating the
// room entry if absent. reachedNow is true exactly when this join moved
// the total from below the threshold onto it.
func (m *RoomMembership) Join(roomID, userID uuid.UUID, connectionID string, required int) (total int, reachedNow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[roomID]
	if !exists {
		room = &roomState{
			required: required,
			members:  make(map[uuid.UUID]map[string]struct{}),
		}
		m.rooms[roomID] = room
	}

	conns, exists := room.members[userID]
	if !exists {
		conns = make(map[string]struct{})
		room.members[userID] = conns
	}
	if _, exists := conns[connectionID]; exists {
		return room.total, false
	}

	prev := room.total
	conns[connectionID] = struct{}{}
	room.total++

	return room.total, room.total == room.required && prev < room.required
}

// Leave removes the connection id, pruning the user entry when its last
// connection goes and the room entry when its last user goes. droppedNow
// is true exactly when the total was at the threshold before removal and
// is below it now.
func (m *RoomMembership) Leave(roomID, userID uuid.UUID, connectionID string) (total int, droppedNow bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, exists := m.rooms[roomID]
	if !exists {
		return 0, false
	}
	conns, exists := room.members[userID]
	if !exists {
		return room.total, false
	}
	if _, exists := conns[connectionID]; !exists {
		return room.total, false
	}

	prev := room.total
	delete(conns, connectionID)
	room.total--
	if len(conns) == 0 {
		delete(room.members, userID)
	}
	if len(room.members) == 0 {
		// Empty rooms must not linger across churn.
		delete(m.rooms, roomID)
	}

	return room.total, prev == room.required && room.total < room.required
}

// Snapshot returns a copy of the current member user ids, suitable for
// notification fan-out without holding any lock during delivery.
func (m *RoomMembership) Snapshot(roomID uuid.UUID) []uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[roomID]
	if !exists {
		return nil
	}
	users := make([]uuid.UUID, 0, len(room.members))
	for userID := range room.members {
		users = append(users, userID)
	}
	return users
}

// Required reports the cached occupancy threshold of a room, if the room
// currently exists.
func (m *RoomMembership) Required(roomID uuid.UUID) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[roomID]
	if !exists {
		return 0, false
	}
	return room.required, true
}

// Total reports the current connection count of a room.
func (m *RoomMembership) Total(roomID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[roomID]
	if !exists {
		return 0
	}
	return room.total
}
