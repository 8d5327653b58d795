package presence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

type capturePublisher struct {
	mu        sync.Mutex
	delivered []struct {
		UserID uuid.UUID
		Msg    models.AlarmMessage
	}
	err error
}

func (p *capturePublisher) PublishAlarm(ctx context.Context, userID uuid.UUID, msg models.AlarmMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delivered = append(p.delivered, struct {
		UserID uuid.UUID
		Msg    models.AlarmMessage
	}{userID, msg})
	return p.err
}

func TestNotifierEmptyRoomNoDeliveries(t *testing.T) {
	m := NewRoomMembership()
	pub := &capturePublisher{}
	n := NewExpirationNotifier(m, pub)

	n.OnExpirySignal(uuid.New(), models.AlarmExpired)

	if len(pub.delivered) != 0 {
		t.Errorf("expected no deliveries for empty room, got %d", len(pub.delivered))
	}
}

func TestNotifierDeliversToEveryMember(t *testing.T) {
	m := NewRoomMembership()
	room := uuid.New()
	a, b := uuid.New(), uuid.New()
	m.Join(room, a, "a-1", 5)
	m.Join(room, a, "a-2", 5) // second device, still one recipient
	m.Join(room, b, "b-1", 5)

	pub := &capturePublisher{}
	n := NewExpirationNotifier(m, pub)
	n.OnExpirySignal(room, models.AlarmExpired)

	if len(pub.delivered) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(pub.delivered))
	}
	seen := map[uuid.UUID]bool{}
	for _, d := range pub.delivered {
		seen[d.UserID] = true
		if d.Msg.Kind != models.AlarmExpired {
			t.Errorf("expected kind EXPIRED, got %s", d.Msg.Kind)
		}
		if d.Msg.RoomID != room {
			t.Errorf("alarm for wrong room: %s", d.Msg.RoomID)
		}
	}
	if !seen[a] || !seen[b] {
		t.Errorf("expected one alarm each for both members, got %v", seen)
	}
}

func TestNotifierPublishFailureIsSwallowed(t *testing.T) {
	m := NewRoomMembership()
	room := uuid.New()
	a, b := uuid.New(), uuid.New()
	m.Join(room, a, "a-1", 5)
	m.Join(room, b, "b-1", 5)

	pub := &capturePublisher{err: errors.New("broker down")}
	n := NewExpirationNotifier(m, pub)

	// Must not panic or retry; every recipient is still attempted once.
	n.OnExpirySignal(room, models.AlarmNearExpiry)
	if len(pub.delivered) != 2 {
		t.Errorf("expected 2 attempts despite failures, got %d", len(pub.delivered))
	}
}
