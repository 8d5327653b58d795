package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

// RoomConfigSource supplies the occupancy threshold configured for a room.
// Consulted once per room lifetime, on the first join.
type RoomConfigSource interface {
	RequiredOccupancy(ctx context.Context, roomID uuid.UUID) (int, error)
}

// DurationSink receives completed study-duration records. It owns summing
// and history storage; the coordinator only hands records over.
type DurationSink interface {
	RecordStudyTime(ctx context.Context, rec models.StudyDurationRecord) error
}

const (
	persistAttempts = 3
	persistTimeout  = 3 * time.Second
)

// Coordinator sequences directory, membership and timer updates for every
// connect and disconnect. Events for the same room are serialized by a
// per-room lock so the edge triggers are computed against a consistent
// prior state; persistence runs after the lock is released.
type Coordinator struct {
	directory  *SessionDirectory
	membership *RoomMembership
	timer      *OccupancyTimer
	config     RoomConfigSource
	sink       DurationSink
	locks      *roomLocks
}

func NewCoordinator(directory *SessionDirectory, membership *RoomMembership, timer *OccupancyTimer, config RoomConfigSource, sink DurationSink) *Coordinator {
	return &Coordinator{
		directory:  directory,
		membership: membership,
		timer:      timer,
		config:     config,
		sink:       sink,
		locks:      newRoomLocks(),
	}
}

// OnConnect registers the session and joins the room; when this join fills
// the room the study timer starts. Returns ErrDuplicateConnection without
// touching membership if the connection id is already registered.
func (c *Coordinator) OnConnect(ctx context.Context, connectionID string, userID, roomID uuid.UUID) error {
	// Resolve the threshold before taking the room lock; it is immutable
	// for the room's lifetime so a stale read cannot happen.
	required, ok := c.membership.Required(roomID)
	if !ok {
		var err error
		required, err = c.config.RequiredOccupancy(ctx, roomID)
		if err != nil {
			return fmt.Errorf("resolve required occupancy for room %s: %w", roomID, err)
		}
	}

	unlock := c.locks.lock(roomID)
	defer unlock()

	if err := c.directory.Register(connectionID, userID, roomID); err != nil {
		return err
	}

	total, reachedNow := c.membership.Join(roomID, userID, connectionID, required)
	if reachedNow {
		c.timer.Start(roomID)
		log.Printf("room %s full (%d/%d), study timer started", roomID, total, required)
	} else {
		log.Printf("room %s: user %s connected (%d/%d)", roomID, userID, total, required)
	}
	return nil
}

// OnDisconnect recovers the session, leaves the room and, when occupancy
// drops below the threshold, stops the timer and dispatches the record.
// Returns ErrUnknownConnection when the connection was never tracked;
// callers treat that as a benign redelivery.
func (c *Coordinator) OnDisconnect(connectionID string) error {
	sess, err := c.directory.Resolve(connectionID)
	if err != nil {
		return err
	}

	unlock := c.locks.lock(sess.RoomID)

	sess, err = c.directory.Remove(connectionID)
	if err != nil {
		// Lost a race with a duplicate disconnect for the same id.
		unlock()
		return err
	}

	total, droppedNow := c.membership.Leave(sess.RoomID, sess.UserID, connectionID)
	var rec *models.StudyDurationRecord
	if droppedNow {
		rec = c.timer.Stop(sess.RoomID)
	}
	unlock()

	if rec != nil {
		log.Printf("room %s below occupancy (%d), study timer stopped after %s", sess.RoomID, total, rec.Duration())
		go c.persist(*rec)
	} else {
		log.Printf("room %s: user %s disconnected (%d)", sess.RoomID, sess.UserID, total)
	}
	return nil
}

// persist hands the record to the sink with a bounded number of attempts.
// The in-memory idle transition is never reverted: room state answers "who
// is here now", not "was history saved".
func (c *Coordinator) persist(rec models.StudyDurationRecord) {
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := c.sink.RecordStudyTime(ctx, rec)
		cancel()
		if err == nil {
			return
		}
		log.Printf("persist study time for room %s (attempt %d/%d): %v", rec.RoomID, attempt, persistAttempts, err)
	}
	log.Printf("dropping study time record for room %s [%s - %s]: retries exhausted", rec.RoomID, rec.StartedAt.Format(time.RFC3339), rec.EndedAt.Format(time.RFC3339))
}
