package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/logger"
	"github.com/qanzmarket/qanz-backend/pkg/redis"
)

// Channel is the pub/sub channel cached views subscribe to for
// invalidation.
const Channel = "qanz:changed"

// Notifier signals "data changed" after every mutating operation so the
// presentation layer can invalidate cached views. Delivery is best-effort;
// implementations never fail the calling operation.
type Notifier interface {
	Changed(ctx context.Context, entity string, id uuid.UUID, action string)
}

// ChangeEvent is the payload published per mutation.
type ChangeEvent struct {
	Entity     string    `json:"entity"`
	ID         uuid.UUID `json:"id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

type redisNotifier struct {
	client *redis.Client
	logg   *logger.Logger
}

// NewRedisNotifier publishes change events on the shared Redis channel.
func NewRedisNotifier(client *redis.Client, logg *logger.Logger) Notifier {
	return &redisNotifier{client: client, logg: logg}
}

func (n *redisNotifier) Changed(ctx context.Context, entity string, id uuid.UUID, action string) {
	event := ChangeEvent{
		Entity:     entity,
		ID:         id,
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if n.logg != nil {
			n.logg.Error(ctx, "events.marshal_failed", err)
		}
		return
	}
	if err := n.client.Publish(ctx, Channel, payload); err != nil && n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{"entity": entity, "entity_id": id.String()})
		n.logg.Warn(ctx, "events.publish_failed")
	}
}

type noop struct{}

// NewNoop returns a notifier that drops all events, used by tests and
// workers that run without Redis.
func NewNoop() Notifier {
	return noop{}
}

func (noop) Changed(context.Context, string, uuid.UUID, string) {}
