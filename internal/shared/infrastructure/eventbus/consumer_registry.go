package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// ConsumerRegistry routes consumed events to the consumers subscribed to
// their routing key. A consumer may subscribe to several keys, and a key may
// have several consumers.
type ConsumerRegistry struct {
	mu       sync.RWMutex
	byKey    map[string][]EventConsumer
	bindings int
	logger   *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		byKey:  make(map[string][]EventConsumer),
		logger: logger,
	}
}

// Register subscribes a consumer under every routing key it declares.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range consumer.EventTypes() {
		r.byKey[key] = append(r.byKey[key], consumer)
		r.bindings++
		r.logger.Debug("consumer subscribed", "routing_key", key)
	}
}

// GetConsumers returns the consumers subscribed to a routing key.
func (r *ConsumerRegistry) GetConsumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKey[routingKey]
}

// GetAllEventTypes returns every routing key with at least one subscriber.
func (r *ConsumerRegistry) GetAllEventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.byKey))
	for key := range r.byKey {
		keys = append(keys, key)
	}
	return keys
}

// ConsumerCount returns the number of key-to-consumer bindings.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bindings
}

// Dispatch delivers an event to every subscriber of its routing key. A
// failing subscriber does not block the others; the last failure is returned
// so queue-backed callers can decide to requeue.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	r.mu.RLock()
	subscribers := make([]EventConsumer, len(r.byKey[event.RoutingKey]))
	copy(subscribers, r.byKey[event.RoutingKey])
	r.mu.RUnlock()

	if len(subscribers) == 0 {
		r.logger.Debug("event has no subscribers", "routing_key", event.RoutingKey)
		return nil
	}

	var lastErr error
	for _, subscriber := range subscribers {
		if err := subscriber.Handle(ctx, event); err != nil {
			r.logger.Error("subscriber failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			lastErr = err
		}
	}
	return lastErr
}
