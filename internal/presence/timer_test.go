package presence

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTimerStartStopRoundTrip(t *testing.T) {
	timer := NewOccupancyTimer()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := t0
	timer.now = func() time.Time { return now }

	room := uuid.New()
	if !timer.Start(room) {
		t.Fatal("start on idle room should transition")
	}
	if !timer.Running(room) {
		t.Fatal("room should be running after start")
	}

	now = t0.Add(25 * time.Minute)
	rec := timer.Stop(room)
	if rec == nil {
		t.Fatal("stop on running room should return a record")
	}
	if rec.RoomID != room {
		t.Errorf("record for wrong room: %s", rec.RoomID)
	}
	if rec.Duration() != 25*time.Minute {
		t.Errorf("expected 25m duration, got %s", rec.Duration())
	}
	if timer.Running(room) {
		t.Error("room should be idle after stop")
	}
}

func TestTimerDoubleStartIsNoop(t *testing.T) {
	timer := NewOccupancyTimer()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := t0
	timer.now = func() time.Time { return now }

	room := uuid.New()
	timer.Start(room)
	now = t0.Add(5 * time.Minute)
	if timer.Start(room) {
		t.Error("second start should be a no-op")
	}

	now = t0.Add(10 * time.Minute)
	rec := timer.Stop(room)
	if rec == nil {
		t.Fatal("expected a record")
	}
	// The duplicate start must not have reset the start time.
	if rec.Duration() != 10*time.Minute {
		t.Errorf("expected 10m duration, got %s", rec.Duration())
	}
}

func TestTimerStopWhileIdle(t *testing.T) {
	timer := NewOccupancyTimer()
	room := uuid.New()

	if rec := timer.Stop(room); rec != nil {
		t.Errorf("stop on idle room should return nil, got %+v", rec)
	}

	timer.Start(room)
	if rec := timer.Stop(room); rec == nil {
		t.Fatal("first stop should return a record")
	}
	if rec := timer.Stop(room); rec != nil {
		t.Errorf("duplicate stop should return nil, got %+v", rec)
	}
}

func TestTimerRoomsAreIndependent(t *testing.T) {
	timer := NewOccupancyTimer()
	r1, r2 := uuid.New(), uuid.New()

	timer.Start(r1)
	if timer.Running(r2) {
		t.Error("starting r1 must not start r2")
	}
	timer.Start(r2)
	timer.Stop(r1)
	if !timer.Running(r2) {
		t.Error("stopping r1 must not stop r2")
	}
}
