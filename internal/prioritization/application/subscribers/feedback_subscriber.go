// Package subscribers wires prioritization handlers to the event bus so
// other surfaces can drive learning asynchronously.
package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/internal/shared/infrastructure/eventbus"
)

// FeedbackSubscriber applies queued feedback events to the adaptive weight
// model. Producers publish feedback requests; the worker consumes them here.
type FeedbackSubscriber struct {
	handler *commands.RecordFeedbackHandler
	logger  *slog.Logger
}

// NewFeedbackSubscriber creates a new feedback subscriber.
func NewFeedbackSubscriber(handler *commands.RecordFeedbackHandler, logger *slog.Logger) *FeedbackSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackSubscriber{
		handler: handler,
		logger:  logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (s *FeedbackSubscriber) EventTypes() []string {
	return []string{domain.RoutingKeyFeedbackRequested}
}

// Handle processes one queued feedback request.
func (s *FeedbackSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var cmd commands.RecordFeedbackCommand
	if err := json.Unmarshal(event.Payload, &cmd); err != nil {
		// Malformed payload, discard rather than requeue forever
		s.logger.Error("failed to unmarshal feedback request",
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}
	if cmd.UserID == "" {
		cmd.UserID = event.Metadata.UserID
	}

	weights, err := s.handler.Handle(ctx, cmd)
	if err != nil {
		s.logger.Error("failed to apply feedback",
			"user_id", cmd.UserID,
			"action", cmd.Action,
			"error", err,
		)
		return err
	}

	s.logger.Info("feedback applied",
		"user_id", cmd.UserID,
		"action", cmd.Action,
		"urgency_weight", weights.Urgency,
	)

	return nil
}
