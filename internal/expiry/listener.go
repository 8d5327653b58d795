package expiry

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyroom-backend/internal/models"
)

// Room lifecycle keys scheduled with a TTL. When Redis expires one of
// them, the key name itself carries the signal.
const (
	AlarmKeyPrefix = "Alarm:"
	EndKeyPrefix   = "End:"

	expiredEventPattern = "__keyevent@*__:expired"
)

// Notifier receives parsed (room, kind) expiry signals.
type Notifier interface {
	OnExpirySignal(roomID uuid.UUID, kind models.AlarmKind)
}

// Listener subscribes to Redis expired-key events and forwards room
// lifecycle signals to the notifier.
type Listener struct {
	redis    *redis.Client
	notifier Notifier
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewListener(redisClient *redis.Client, notifier Notifier) *Listener {
	return &Listener{
		redis:    redisClient,
		notifier: notifier,
		done:     make(chan struct{}),
	}
}

func (l *Listener) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	// Expired-key events are off by default. Managed Redis may reject
	// CONFIG SET; in that case the operator has to enable "Ex" themselves.
	if err := l.redis.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		log.Printf("could not enable keyspace notifications: %v", err)
	}

	go l.run(ctx)
}

func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
		<-l.done
	}
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	pubsub := l.redis.PSubscribe(ctx, expiredEventPattern)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			roomID, kind, ok := ParseExpiredKey(msg.Payload)
			if !ok {
				continue
			}
			l.notifier.OnExpirySignal(roomID, kind)
		}
	}
}

// ParseExpiredKey maps an expired key name to its room and alarm kind.
// Keys outside the Alarm:/End: convention are not ours and are skipped.
func ParseExpiredKey(key string) (uuid.UUID, models.AlarmKind, bool) {
	var raw string
	var kind models.AlarmKind
	switch {
	case strings.HasPrefix(key, AlarmKeyPrefix):
		raw, kind = key[len(AlarmKeyPrefix):], models.AlarmNearExpiry
	case strings.HasPrefix(key, EndKeyPrefix):
		raw, kind = key[len(EndKeyPrefix):], models.AlarmExpired
	default:
		return uuid.Nil, "", false
	}

	roomID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", false
	}
	return roomID, kind, true
}
