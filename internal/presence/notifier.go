package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

// AlarmPublisher delivers one alarm payload to a user's private channel.
type AlarmPublisher interface {
	PublishAlarm(ctx context.Context, userID uuid.UUID, alarm models.AlarmMessage) error
}

const publishTimeout = 2 * time.Second

// ExpirationNotifier fans room-lifecycle alarms out to every user currently
// in the room. Delivery is best effort and at most once per signal: a
// failed publish is logged and forgotten, never retried.
type ExpirationNotifier struct {
	membership *RoomMembership
	publisher  AlarmPublisher
}

func NewExpirationNotifier(membership *RoomMembership, publisher AlarmPublisher) *ExpirationNotifier {
	return &ExpirationNotifier{membership: membership, publisher: publisher}
}

// OnExpirySignal builds an alarm from the room's current membership
// snapshot and publishes it to each member. A room with no members
// produces no deliveries.
func (n *ExpirationNotifier) OnExpirySignal(roomID uuid.UUID, kind models.AlarmKind) {
	recipients := n.membership.Snapshot(roomID)
	if len(recipients) == 0 {
		return
	}

	event := models.AlarmEvent{RoomID: roomID, Kind: kind, Recipients: recipients}
	log.Printf("room %s: %s alarm for %d member(s)", roomID, kind, len(recipients))

	msg := models.AlarmMessage{
		Kind:    kind,
		RoomID:  roomID,
		Message: alarmText(kind),
	}
	for _, userID := range event.Recipients {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := n.publisher.PublishAlarm(ctx, userID, msg); err != nil {
			log.Printf("publish %s alarm for room %s to user %s: %v", kind, roomID, userID, err)
		}
		cancel()
	}
}

func alarmText(kind models.AlarmKind) string {
	switch kind {
	case models.AlarmNearExpiry:
		return "The study room is closing soon."
	case models.AlarmExpired:
		return "The study room has closed."
	default:
		return fmt.Sprintf("Room alarm: %s", kind)
	}
}
