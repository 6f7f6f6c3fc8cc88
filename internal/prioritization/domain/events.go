package domain

import (
	"github.com/felixgeelhaar/momentum/internal/shared/domain"
	"github.com/google/uuid"
)

// Routing keys for prioritization events.
const (
	RoutingKeyTasksPrioritized  = "prioritization.tasks.prioritized"
	RoutingKeyFeedbackRecorded  = "prioritization.feedback.recorded"
	RoutingKeyFeedbackRequested = "prioritization.feedback.requested"
)

// TasksPrioritized is emitted after a batch has been ranked.
type TasksPrioritized struct {
	domain.BaseEvent
	UserID     string `json:"user_id"`
	TaskCount  int    `json:"task_count"`
	AIEnhanced bool   `json:"ai_enhanced"`
	TopTaskID  string `json:"top_task_id,omitempty"`
}

// NewTasksPrioritized creates a TasksPrioritized event.
func NewTasksPrioritized(userID string, taskCount int, aiEnhanced bool, topTaskID string) *TasksPrioritized {
	e := &TasksPrioritized{
		BaseEvent:  domain.NewBaseEvent(uuid.New(), "prioritization", RoutingKeyTasksPrioritized),
		UserID:     userID,
		TaskCount:  taskCount,
		AIEnhanced: aiEnhanced,
		TopTaskID:  topTaskID,
	}
	e.SetMetadata(domain.EventMetadata{UserID: userID})
	return e
}

// FeedbackRecorded is emitted after a feedback event updated the weights.
type FeedbackRecorded struct {
	domain.BaseEvent
	UserID  string          `json:"user_id"`
	TaskID  string          `json:"task_id"`
	Action  string          `json:"action"`
	Weights AdaptiveWeights `json:"weights"`
}

// NewFeedbackRecorded creates a FeedbackRecorded event.
func NewFeedbackRecorded(userID, taskID, action string, weights AdaptiveWeights) *FeedbackRecorded {
	e := &FeedbackRecorded{
		BaseEvent: domain.NewBaseEvent(uuid.New(), "prioritization", RoutingKeyFeedbackRecorded),
		UserID:    userID,
		TaskID:    taskID,
		Action:    action,
		Weights:   weights,
	}
	e.SetMetadata(domain.EventMetadata{UserID: userID})
	return e
}
