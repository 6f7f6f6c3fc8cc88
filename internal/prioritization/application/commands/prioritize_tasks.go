// Package commands holds the write-side application handlers for the
// prioritization context.
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/services"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/internal/shared/infrastructure/eventbus"
)

// PrioritizeTasksCommand contains the task batch to rank.
type PrioritizeTasksCommand struct {
	Tasks  []domain.TaskInput `json:"tasks"`
	UserID string             `json:"userId,omitempty"`

	// History holds past tasks with known durations, used for overrun
	// prediction. CompletedTasks additionally feed the learned pattern
	// context; both are optional.
	History        []domain.TaskInput `json:"history,omitempty"`
	CompletedTasks []domain.TaskInput `json:"completedTasks,omitempty"`
}

// PrioritizedTask is the wire representation of one ranked task. Internal
// score breakdowns stay server-side; callers only see the ordering.
type PrioritizedTask struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	IsDaily     bool   `json:"isDaily,omitempty"`
}

// PrioritizeTasksResult is the ranked batch returned to the caller.
type PrioritizeTasksResult struct {
	PrioritizedTasks []PrioritizedTask `json:"prioritizedTasks"`
	Insights         []string          `json:"insights"`
	AIEnhanced       bool              `json:"aiEnhanced"`
	Note             string            `json:"note,omitempty"`
}

// PrioritizeTasksHandler handles the PrioritizeTasksCommand.
type PrioritizeTasksHandler struct {
	engine    *services.Engine
	publisher eventbus.Publisher
	loc       *time.Location
	logger    *slog.Logger
}

// NewPrioritizeTasksHandler creates a new PrioritizeTasksHandler. All date
// resolution happens in loc; nil means the process-local zone.
func NewPrioritizeTasksHandler(engine *services.Engine, publisher eventbus.Publisher, loc *time.Location, logger *slog.Logger) *PrioritizeTasksHandler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PrioritizeTasksHandler{
		engine:    engine,
		publisher: publisher,
		loc:       loc,
		logger:    logger,
	}
}

// Handle executes the PrioritizeTasksCommand.
func (h *PrioritizeTasksHandler) Handle(ctx context.Context, cmd PrioritizeTasksCommand) (*PrioritizeTasksResult, error) {
	tasks, err := domain.NormalizeBatch(cmd.Tasks, h.loc)
	if err != nil {
		return nil, err
	}

	history, err := domain.NormalizeBatch(append(cmd.History, cmd.CompletedTasks...), h.loc)
	if err != nil {
		return nil, err
	}

	out, err := h.engine.Prioritize(ctx, services.PrioritizeInput{
		Tasks:   tasks,
		UserID:  cmd.UserID,
		History: history,
	})
	if err != nil {
		return nil, err
	}

	result := &PrioritizeTasksResult{
		PrioritizedTasks: make([]PrioritizedTask, 0, len(out.Tasks)),
		Insights:         out.Insights,
		AIEnhanced:       out.AIEnhanced,
		Note:             out.Note,
	}
	for _, s := range out.Tasks {
		result.PrioritizedTasks = append(result.PrioritizedTasks, toWireTask(s))
	}

	if len(out.Tasks) > 0 {
		event := domain.NewTasksPrioritized(cmd.UserID, len(out.Tasks), out.AIEnhanced, out.Tasks[0].Task.ID)
		if err := eventbus.PublishDomainEvent(ctx, h.publisher, event); err != nil {
			// Ranking already succeeded; a publish failure is logged, not fatal.
			h.logger.Warn("failed to publish tasks prioritized event",
				"user_id", cmd.UserID,
				"error", err,
			)
		}
	}

	return result, nil
}

func toWireTask(s domain.ScoredTask) PrioritizedTask {
	t := s.Task
	w := PrioritizedTask{
		Rank:        s.Rank,
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    t.Category,
		IsDaily:     t.IsDaily,
	}
	if t.DueAt != nil {
		w.DueDate = t.DueAt.Format("2006-01-02")
	}
	if t.StartAt != nil {
		w.StartDate = t.StartAt.Format("2006-01-02")
	}
	return w
}
