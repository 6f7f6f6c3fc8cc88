package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConsumedEvent is the wire envelope for events crossing the bus. Payload
// holds the serialized domain event; the envelope fields let consumers route
// and trace without decoding it.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata carries tracing and attribution fields on the wire.
type EventMetadata struct {
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// EventConsumer handles events for the routing keys it declares.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer subscribes to,
	// e.g. ["prioritization.feedback.requested"].
	EventTypes() []string

	// Handle processes one event. Returning an error asks queue-backed
	// buses to requeue the delivery.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// Consumer is a broker-side consume loop feeding registered EventConsumers.
type Consumer interface {
	// Start blocks, consuming until the context is cancelled.
	Start(ctx context.Context) error

	// RegisterConsumer subscribes an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close shuts down the broker connection.
	Close() error
}
