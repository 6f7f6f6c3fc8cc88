package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// InProcessEventBus delivers events synchronously to registered consumers.
// It stands in for RabbitMQ when the CLI runs without a broker, so command
// handlers publish the same way in both modes.
type InProcessEventBus struct {
	mu       sync.Mutex
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a bus with an empty registry.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer subscribes an event consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// GetRegistry returns the underlying consumer registry.
func (b *InProcessEventBus) GetRegistry() *ConsumerRegistry {
	return b.registry
}

// Publish decodes the envelope and dispatches it inline. Consumer failures
// are logged but never fail the publish; local mode has no requeue.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.Error("undecodable event payload",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}

	dispatchCtx := observability.WithCorrelationID(ctx, event.Metadata.CorrelationID)
	if event.Metadata.UserID != "" {
		dispatchCtx = observability.WithUserID(dispatchCtx, event.Metadata.UserID)
	}

	start := time.Now()
	if err := b.registry.Dispatch(dispatchCtx, event); err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil
	}

	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op; the bus holds no connections.
func (b *InProcessEventBus) Close() error {
	return nil
}

// Start blocks until the context is cancelled. Delivery happens inline on
// Publish, so there is no consume loop to run.
func (b *InProcessEventBus) Start(ctx context.Context) error {
	b.logger.Info("in-process event bus started (synchronous mode)")
	<-ctx.Done()
	return ctx.Err()
}

// InProcessPublisher exposes the bus through the Publisher interface.
type InProcessPublisher struct {
	bus *InProcessEventBus
}

// NewInProcessPublisher wraps a bus as a Publisher.
func NewInProcessPublisher(bus *InProcessEventBus, logger *slog.Logger) *InProcessPublisher {
	return &InProcessPublisher{bus: bus}
}

// Publish hands the message to the in-process bus.
func (p *InProcessPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return p.bus.Publish(ctx, routingKey, payload)
}

// Close is a no-op.
func (p *InProcessPublisher) Close() error { return nil }
