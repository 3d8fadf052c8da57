package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/seduc-pe/academic-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultChannel is the pub/sub channel shared by all hub instances.
const DefaultChannel = "academic-hub:events"

// RedisEventBus publishes every event to a Redis channel and replays events
// published by other instances through a local in-memory bus.
type RedisEventBus struct {
	client     redis.UniversalClient
	pubsub     *redis.PubSub
	localBus   *InMemoryEventBus
	channel    string
	instanceID string
	logger     *slog.Logger
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	Client redis.UniversalClient

	// Channel defaults to DefaultChannel.
	Channel string

	// InstanceID filters out this instance's own events on receipt.
	InstanceID string

	LocalBusConfig InMemoryEventBusConfig

	Logger *slog.Logger
}

// NewRedisEventBus subscribes to the channel and starts the receive loop.
func NewRedisEventBus(ctx context.Context, config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Channel == "" {
		config.Channel = DefaultChannel
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.LocalBusConfig.Logger == nil {
		config.LocalBusConfig.Logger = config.Logger
	}

	pubsub := config.Client.Subscribe(ctx, config.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", config.Channel, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:     config.Client,
		pubsub:     pubsub,
		localBus:   NewInMemoryEventBus(config.LocalBusConfig),
		channel:    config.Channel,
		instanceID: config.InstanceID,
		logger:     config.Logger.With("component", "redis_eventbus", "instance", config.InstanceID),
		cancel:     cancel,
	}

	bus.wg.Add(1)
	go func() {
		defer bus.wg.Done()
		bus.receiveLoop(loopCtx, pubsub.Channel())
	}()

	return bus, nil
}

// Subscribe registers a handler for a specific event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.localBus.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler for all events.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.localBus.SubscribeAll(handler)
}

// Publish delivers the event locally and to the Redis channel. A Redis
// failure is logged; local handlers still run.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrEventBusClosed
	}

	data, err := encodeWire(b.instanceID, event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish to redis", "event_type", event.EventType(), "error", err)
	}

	return b.localBus.Publish(event)
}

func (b *RedisEventBus) receiveLoop(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *RedisEventBus) handleMessage(payload string) {
	event, self, err := decodeWire(b.instanceID, payload)
	if err != nil {
		b.logger.Warn("dropping malformed event", "error", err)
		return
	}
	if self {
		return
	}
	if err := b.localBus.Publish(event); err != nil {
		b.logger.Error("failed to process remote event", "event_type", event.EventType(), "error", err)
	}
}

// Close unsubscribes, stops the receive loop and drains the local bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()

	if cerr := b.localBus.Close(); cerr != nil && err == nil {
		err = cerr
	}
	b.logger.Info("redis event bus closed")
	return err
}

// Metrics returns the local bus counters.
func (b *RedisEventBus) Metrics() *EventBusMetrics {
	return b.localBus.Metrics()
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

type wireMessage struct {
	Instance string `json:"instance"`
	shared.EventEnvelope
}

// RemoteEvent is an event received from another instance. Only the envelope
// survives the trip; the concrete event type is not reconstructed.
type RemoteEvent struct {
	Envelope shared.EventEnvelope
	Origin   string
	payload  map[string]interface{}
}

func (e *RemoteEvent) EventType() shared.EventType     { return e.Envelope.Type }
func (e *RemoteEvent) AggregateID() string             { return e.Envelope.AggregateID }
func (e *RemoteEvent) OccurredAt() time.Time           { return e.Envelope.Timestamp }
func (e *RemoteEvent) Payload() map[string]interface{} { return e.payload }

// IsRemote reports whether the event arrived from another instance.
func IsRemote(event shared.Event) bool {
	_, ok := event.(*RemoteEvent)
	return ok
}

func encodeWire(instance string, event shared.Event) ([]byte, error) {
	env, err := shared.NewEnvelope(uuid.NewString(), event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{Instance: instance, EventEnvelope: env})
}

// decodeWire parses a channel payload. self is true for messages this
// instance published.
func decodeWire(instance, payload string) (event *RemoteEvent, self bool, err error) {
	var msg wireMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, false, err
	}
	if msg.Type == "" {
		return nil, false, errors.New("event type missing")
	}
	if msg.Instance == instance {
		return nil, true, nil
	}

	data := make(map[string]interface{})
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			return nil, false, fmt.Errorf("payload: %w", err)
		}
	}
	return &RemoteEvent{Envelope: msg.EventEnvelope, Origin: msg.Instance, payload: data}, false, nil
}
