package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/services"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// Feedback actions accepted from callers.
const (
	ActionCompleted = "completed"
	ActionPostponed = "postponed"
	ActionReordered = "reordered"
	ActionDeleted   = "deleted"
	ActionLiked     = "liked"
	ActionDisliked  = "disliked"
)

var validActions = map[string]bool{
	ActionCompleted: true,
	ActionPostponed: true,
	ActionReordered: true,
	ActionDeleted:   true,
	ActionLiked:     true,
	ActionDisliked:  true,
}

// ErrUnknownAction is returned for feedback actions outside the accepted set.
var ErrUnknownAction = errors.New("unknown feedback action")

// ErrEmptyUserID is returned when feedback arrives without a user.
var ErrEmptyUserID = errors.New("user id cannot be empty")

// RecordFeedbackCommand carries one feedback signal plus the user's completed
// task history for the learning step.
type RecordFeedbackCommand struct {
	UserID         string             `json:"userId"`
	TaskID         string             `json:"taskId"`
	Action         string             `json:"action"`
	CompletedTasks []domain.TaskInput `json:"completedTasks,omitempty"`
	Timestamp      string             `json:"timestamp,omitempty"`
}

// RecordFeedbackHandler handles the RecordFeedbackCommand.
type RecordFeedbackHandler struct {
	model     *services.AdaptiveWeightModel
	engine    *services.Engine
	publisher eventbus.Publisher
	loc       *time.Location
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewRecordFeedbackHandler creates a new RecordFeedbackHandler.
func NewRecordFeedbackHandler(
	model *services.AdaptiveWeightModel,
	engine *services.Engine,
	publisher eventbus.Publisher,
	loc *time.Location,
	logger *slog.Logger,
	metrics observability.Metrics,
) *RecordFeedbackHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RecordFeedbackHandler{
		model:     model,
		engine:    engine,
		publisher: publisher,
		loc:       loc,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle validates the feedback, runs one learning step over the completed
// history, and returns the renormalized weight vector.
func (h *RecordFeedbackHandler) Handle(ctx context.Context, cmd RecordFeedbackCommand) (domain.AdaptiveWeights, error) {
	if cmd.UserID == "" {
		return domain.AdaptiveWeights{}, ErrEmptyUserID
	}
	if !validActions[cmd.Action] {
		return domain.AdaptiveWeights{}, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	completed, err := domain.NormalizeBatch(cmd.CompletedTasks, h.loc)
	if err != nil {
		return domain.AdaptiveWeights{}, err
	}

	weights, err := h.model.Learn(ctx, cmd.UserID, completed, h.engine.ComplexityOf)
	if err != nil {
		return domain.AdaptiveWeights{}, err
	}
	h.metrics.Counter(observability.MetricFeedbackApplied, 1)

	event := domain.NewFeedbackRecorded(cmd.UserID, cmd.TaskID, cmd.Action, weights)
	if err := eventbus.PublishDomainEvent(ctx, h.publisher, event); err != nil {
		h.logger.Warn("failed to publish feedback recorded event",
			"user_id", cmd.UserID,
			"action", cmd.Action,
			"error", err,
		)
	}

	return weights, nil
}
