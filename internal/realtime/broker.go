package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"social-service/internal/models"
)

const (
	changesChannel  = "social:changes"
	presenceChannel = "social:presence"

	connectTimeout = 5 * time.Second
)

// Hub receives events the broker pulls off the wire. Implemented by ws.Hub.
type Hub interface {
	BroadcastChange(event models.ChangeEvent)
	BroadcastPresenceSync(sync models.PresenceSync)
}

// SnapshotSource produces the authoritative online set for presence syncs.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]models.PresenceEntry, error)
}

// Broker relays change-feed and presence events across instances over
// Redis pub/sub. Each instance subscribes to its own publishes too, so
// local delivery and cross-instance delivery take the same path and
// per-scope ordering is preserved.
type Broker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewBroker connects to Redis and verifies the connection.
func NewBroker(client *redis.Client, logger *zap.Logger) (*Broker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Broker{client: client, logger: logger}, nil
}

// PublishChange fans a committed row change out to every instance.
func (b *Broker) PublishChange(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, changesChannel, payload).Err()
}

// PublishPresencePing signals that presence membership changed. Receivers
// rebuild the snapshot from the key store rather than patching state.
func (b *Broker) PublishPresencePing(ctx context.Context) error {
	return b.client.Publish(ctx, presenceChannel, "sync").Err()
}

// Listen consumes both channels until the context is cancelled, routing
// change events to their scoped rooms and presence pings into full
// snapshot broadcasts. Runs as a goroutine owned by main.
func (b *Broker) Listen(ctx context.Context, hub Hub, snapshots SnapshotSource) {
	pubsub := b.client.Subscribe(ctx, changesChannel, presenceChannel)
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
			switch msg.Channel {
			case changesChannel:
				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("malformed change event", zap.Error(err))
					continue
				}
				hub.BroadcastChange(event)
			case presenceChannel:
				online, err := snapshots.Snapshot(ctx)
				if err != nil {
					// Degrade to skipping this sync; the next membership
					// change or TTL expiry produces a fresh one.
					b.logger.Warn("presence snapshot failed", zap.Error(err))
					continue
				}
				hub.BroadcastPresenceSync(models.PresenceSync{Type: "sync", Online: online})
			}
		}
	}
}

// Close releases the Redis connection.
func (b *Broker) Close() error {
	return b.client.Close()
}
