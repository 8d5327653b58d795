package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

type staticConfig struct {
	required int
	err      error
	calls    int
	mu       sync.Mutex
}

func (c *staticConfig) RequiredOccupancy(ctx context.Context, roomID uuid.UUID) (int, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.required, c.err
}

type captureSink struct {
	mu       sync.Mutex
	records  []models.StudyDurationRecord
	attempts int
	failures int // fail this many calls before succeeding
}

func (s *captureSink) RecordStudyTime(ctx context.Context, rec models.StudyDurationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("sink unavailable")
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) snapshot() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records), s.attempts
}

func newTestCoordinator(required int, sink *captureSink) *Coordinator {
	return NewCoordinator(
		NewSessionDirectory(),
		NewRoomMembership(),
		NewOccupancyTimer(),
		&staticConfig{required: required},
		sink,
	)
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCoordinatorFullRoomLifecycle(t *testing.T) {
	sink := &captureSink{}
	c := newTestCoordinator(3, sink)
	ctx := context.Background()

	room := uuid.New()
	a, b := uuid.New(), uuid.New()

	// A on two devices, B and C on one each.
	if err := c.OnConnect(ctx, "a-1", a, room); err != nil {
		t.Fatalf("connect a-1: %v", err)
	}
	if err := c.OnConnect(ctx, "a-2", a, room); err != nil {
		t.Fatalf("connect a-2: %v", err)
	}
	if c.timer.Running(room) {
		t.Fatal("timer must not run below threshold")
	}
	if err := c.OnConnect(ctx, "b-1", b, room); err != nil {
		t.Fatalf("connect b-1: %v", err)
	}
	if !c.timer.Running(room) {
		t.Fatal("timer should start when the third connection arrives")
	}

	// A drops one of two devices: count 3 -> 2, timer stops.
	if err := c.OnDisconnect("a-2"); err != nil {
		t.Fatalf("disconnect a-2: %v", err)
	}
	if c.timer.Running(room) {
		t.Fatal("timer should stop when occupancy drops below threshold")
	}

	waitFor(t, func() bool { n, _ := sink.snapshot(); return n == 1 }, "one persisted record")
	if rec := sink.records[0]; rec.RoomID != room {
		t.Errorf("record for wrong room: %s", rec.RoomID)
	}

	// Remaining members leave; no further records.
	if err := c.OnDisconnect("a-1"); err != nil {
		t.Fatalf("disconnect a-1: %v", err)
	}
	if err := c.OnDisconnect("b-1"); err != nil {
		t.Fatalf("disconnect b-1: %v", err)
	}
	if n, _ := sink.snapshot(); n != 1 {
		t.Errorf("expected exactly one record, got %d", n)
	}
	if c.directory.Len() != 0 {
		t.Errorf("directory should be empty, has %d", c.directory.Len())
	}
}

func TestCoordinatorDuplicateConnect(t *testing.T) {
	sink := &captureSink{}
	c := newTestCoordinator(2, sink)
	ctx := context.Background()

	room := uuid.New()
	a := uuid.New()

	if err := c.OnConnect(ctx, "a-1", a, room); err != nil {
		t.Fatalf("connect: %v", err)
	}
	err := c.OnConnect(ctx, "a-1", a, room)
	if !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("expected ErrDuplicateConnection, got %v", err)
	}
	// Membership must not have been mutated twice.
	if total := c.membership.Total(room); total != 1 {
		t.Errorf("expected total 1 after rejected duplicate, got %d", total)
	}
}

func TestCoordinatorUnknownDisconnect(t *testing.T) {
	sink := &captureSink{}
	c := newTestCoordinator(2, sink)

	if err := c.OnDisconnect("never-connected"); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("expected ErrUnknownConnection, got %v", err)
	}
}

func TestCoordinatorConfigFailure(t *testing.T) {
	cfg := &staticConfig{err: errors.New("room not found")}
	c := NewCoordinator(NewSessionDirectory(), NewRoomMembership(), NewOccupancyTimer(), cfg, &captureSink{})

	err := c.OnConnect(context.Background(), "a-1", uuid.New(), uuid.New())
	if err == nil {
		t.Fatal("expected error when threshold cannot be resolved")
	}
	if c.directory.Len() != 0 {
		t.Error("failed connect must not leave a session behind")
	}
}

func TestCoordinatorThresholdFetchedOncePerRoomLifetime(t *testing.T) {
	cfg := &staticConfig{required: 4}
	c := NewCoordinator(NewSessionDirectory(), NewRoomMembership(), NewOccupancyTimer(), cfg, &captureSink{})
	ctx := context.Background()

	room := uuid.New()
	for i := 0; i < 3; i++ {
		user := uuid.New()
		if err := c.OnConnect(ctx, fmt.Sprintf("c-%d", i), user, room); err != nil {
			t.Fatalf("connect %d: %v", i, err)
		}
	}

	cfg.mu.Lock()
	calls := cfg.calls
	cfg.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected a single config lookup while the room lives, got %d", calls)
	}
}

func TestCoordinatorPersistRetries(t *testing.T) {
	sink := &captureSink{failures: 2}
	c := newTestCoordinator(1, sink)
	ctx := context.Background()

	room := uuid.New()
	a := uuid.New()
	if err := c.OnConnect(ctx, "a-1", a, room); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.OnDisconnect("a-1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	waitFor(t, func() bool { n, attempts := sink.snapshot(); return n == 1 && attempts == 3 }, "record persisted on third attempt")
}

func TestCoordinatorPersistGivesUp(t *testing.T) {
	sink := &captureSink{failures: 100}
	c := newTestCoordinator(1, sink)
	ctx := context.Background()

	room := uuid.New()
	a := uuid.New()
	if err := c.OnConnect(ctx, "a-1", a, room); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.OnDisconnect("a-1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	waitFor(t, func() bool { _, attempts := sink.snapshot(); return attempts == 3 }, "three attempts")
	time.Sleep(20 * time.Millisecond)
	if n, attempts := sink.snapshot(); n != 0 || attempts != 3 {
		t.Errorf("expected dropped record after 3 attempts, got records=%d attempts=%d", n, attempts)
	}
	// The room stays idle; the failed write never revives the timer.
	if c.timer.Running(room) {
		t.Error("timer must remain idle after persistence failure")
	}
}

func TestCoordinatorConcurrentSameRoom(t *testing.T) {
	const threshold = 8
	sink := &captureSink{}
	c := newTestCoordinator(threshold, sink)
	ctx := context.Background()

	room := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < threshold; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := c.OnConnect(ctx, fmt.Sprintf("c-%d", i), uuid.New(), room); err != nil {
				t.Errorf("connect %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if !c.timer.Running(room) {
		t.Fatal("timer should be running once all connections landed")
	}
	if total := c.membership.Total(room); total != threshold {
		t.Fatalf("expected total %d, got %d", threshold, total)
	}

	for i := 0; i < threshold; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := c.OnDisconnect(fmt.Sprintf("c-%d", i)); err != nil {
				t.Errorf("disconnect %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// Exactly one stop edge regardless of interleaving.
	waitFor(t, func() bool { n, _ := sink.snapshot(); return n == 1 }, "single record")
	if c.timer.Running(room) {
		t.Error("timer should be idle after the room empties")
	}
	if total := c.membership.Total(room); total != 0 {
		t.Errorf("expected empty room, got total %d", total)
	}
}

func TestCoordinatorIndependentRooms(t *testing.T) {
	sink := &captureSink{}
	c := newTestCoordinator(2, sink)
	ctx := context.Background()

	r1, r2 := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		for _, room := range []uuid.UUID{r1, r2} {
			wg.Add(1)
			go func(room uuid.UUID, i int) {
				defer wg.Done()
				connID := fmt.Sprintf("%s-%d", room, i)
				if err := c.OnConnect(ctx, connID, uuid.New(), room); err != nil {
					t.Errorf("connect %s: %v", connID, err)
				}
			}(room, i)
		}
	}
	wg.Wait()

	if !c.timer.Running(r1) || !c.timer.Running(r2) {
		t.Error("both rooms should have running timers")
	}
}
