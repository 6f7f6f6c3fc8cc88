// Package eventbus moves domain events between the engine and its
// collaborators, either in-process or over RabbitMQ.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/momentum/internal/shared/domain"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// Publisher sends serialized domain events to a message broker.
type Publisher interface {
	// Publish sends a message with the given routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// PublishDomainEvent wraps a domain event in the wire envelope and publishes
// it under the event's routing key. The correlation ID is taken from the
// event metadata when set, otherwise from the context.
func PublishDomainEvent(ctx context.Context, p Publisher, event domain.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.RoutingKey(), err)
	}

	meta := event.Metadata()
	correlationID := ""
	if meta.CorrelationID != uuid.Nil {
		correlationID = meta.CorrelationID.String()
	} else {
		correlationID = observability.CorrelationIDFromContext(ctx)
	}
	causationID := ""
	if meta.CausationID != uuid.Nil {
		causationID = meta.CausationID.String()
	}

	envelope := ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       body,
		Metadata: EventMetadata{
			UserID:        meta.UserID,
			CorrelationID: correlationID,
			CausationID:   causationID,
		},
	}

	wire, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", event.RoutingKey(), err)
	}
	return p.Publish(ctx, event.RoutingKey(), wire)
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that only logs.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the message without delivering it anywhere.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("event discarded (noop publisher)",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error { return nil }
