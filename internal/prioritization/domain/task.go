// Package domain defines the task snapshot model and learned per-user state
// used by the prioritization engine. The engine only reads task snapshots;
// task lifecycle is owned by the upstream persistence collaborator.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEmptyTaskID   = errors.New("task id cannot be empty")
	ErrEmptyTitle    = errors.New("task title cannot be empty")
	ErrBadTimeOfDay  = errors.New("time of day must be HH:MM")
	ErrNoTasks       = errors.New("task list cannot be empty")
	ErrDuplicateTask = errors.New("duplicate task id in batch")
)

// Priority is the user-assigned importance level.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Well-known categories. The category set is open; unknown categories fall
// back to default scoring weights.
const (
	CategoryWork     = "Work"
	CategoryAcademic = "Academic"
	CategoryPersonal = "Personal"
)

// TaskInput is the loosely-typed wire representation of a task as produced
// by the document store. Optional fields may be absent or date-only.
type TaskInput struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Priority         string   `json:"priority,omitempty"`
	Category         string   `json:"category,omitempty"`
	DueDate          string   `json:"dueDate,omitempty"`   // "2006-01-02" or RFC 3339
	StartDate        string   `json:"startDate,omitempty"` // "2006-01-02"
	StartTime        string   `json:"startTime,omitempty"` // "HH:MM"
	EndTime          string   `json:"endTime,omitempty"`   // "HH:MM"
	IsDaily          bool     `json:"isDaily,omitempty"`
	Completed        bool     `json:"completed,omitempty"`
	CompletedAt      string   `json:"completedAt,omitempty"`
	CompletedDates   []string `json:"completedDates,omitempty"`
	Points           int      `json:"points,omitempty"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty"`
	ActualMinutes    int      `json:"actualMinutes,omitempty"`
}

// TaskSnapshot is the normalized, fully-resolved task the engine scores.
// All optional wire fields are resolved exactly once at ingestion; scoring
// never re-interprets raw strings.
type TaskSnapshot struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Category    string

	// DueAt is the resolved deadline. Date-only due dates resolve to the end
	// of that day in the ingestion location.
	DueAt *time.Time

	// StartAt is the resolved start instant (start date + start time).
	StartAt *time.Time
	EndAt   *time.Time

	IsDaily        bool
	Completed      bool
	CompletedAt    *time.Time
	CompletedDates []time.Time
	Points         int

	// EstimatedMinutes and ActualMinutes feed the risk predictor. Zero means
	// unknown; estimates are derived from text when absent.
	EstimatedMinutes int
	ActualMinutes    int
}

// Text returns the case-folded title+description used for signal extraction.
func (t TaskSnapshot) Text() string {
	if t.Description == "" {
		return strings.ToLower(t.Title)
	}
	return strings.ToLower(t.Title + " " + t.Description)
}

// HasDeadline reports whether the task carries a resolved due date.
func (t TaskSnapshot) HasDeadline() bool { return t.DueAt != nil }

// HasStart reports whether the task carries a resolved start instant.
func (t TaskSnapshot) HasStart() bool { return t.StartAt != nil }

// NormalizeTask resolves a wire task into a snapshot using a single
// location for all date arithmetic.
func NormalizeTask(in TaskInput, loc *time.Location) (TaskSnapshot, error) {
	if loc == nil {
		loc = time.Local
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		return TaskSnapshot{}, ErrEmptyTaskID
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return TaskSnapshot{}, fmt.Errorf("task %s: %w", id, ErrEmptyTitle)
	}

	snap := TaskSnapshot{
		ID:               id,
		Title:            title,
		Description:      strings.TrimSpace(in.Description),
		Priority:         parsePriority(in.Priority),
		Category:         normalizeCategory(in.Category),
		IsDaily:          in.IsDaily,
		Completed:        in.Completed,
		Points:           in.Points,
		EstimatedMinutes: in.EstimatedMinutes,
		ActualMinutes:    in.ActualMinutes,
	}

	if in.DueDate != "" {
		due, err := resolveDue(in.DueDate, loc)
		if err != nil {
			return TaskSnapshot{}, fmt.Errorf("task %s: due date: %w", id, err)
		}
		snap.DueAt = &due
	}

	if in.StartDate != "" {
		start, err := resolveStart(in.StartDate, in.StartTime, loc)
		if err != nil {
			return TaskSnapshot{}, fmt.Errorf("task %s: start: %w", id, err)
		}
		snap.StartAt = &start

		if in.EndTime != "" {
			h, m, err := parseTimeOfDay(in.EndTime)
			if err != nil {
				return TaskSnapshot{}, fmt.Errorf("task %s: end time: %w", id, err)
			}
			end := time.Date(start.Year(), start.Month(), start.Day(), h, m, 0, 0, loc)
			snap.EndAt = &end
		}
	}

	if in.CompletedAt != "" {
		at, err := parseInstant(in.CompletedAt, loc)
		if err != nil {
			return TaskSnapshot{}, fmt.Errorf("task %s: completed at: %w", id, err)
		}
		snap.CompletedAt = &at
	}

	for _, d := range in.CompletedDates {
		at, err := parseInstant(d, loc)
		if err != nil {
			return TaskSnapshot{}, fmt.Errorf("task %s: completed date: %w", id, err)
		}
		snap.CompletedDates = append(snap.CompletedDates, at)
	}

	return snap, nil
}

// NormalizeBatch resolves a batch, rejecting duplicate IDs.
func NormalizeBatch(in []TaskInput, loc *time.Location) ([]TaskSnapshot, error) {
	out := make([]TaskSnapshot, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		snap, err := NormalizeTask(raw, loc)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[snap.ID]; dup {
			return nil, fmt.Errorf("task %s: %w", snap.ID, ErrDuplicateTask)
		}
		seen[snap.ID] = struct{}{}
		out = append(out, snap)
	}
	return out, nil
}

func parsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "urgent", "critical":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func normalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryPersonal
	}
	return s
}

// resolveDue parses a due date. Date-only values resolve to the end of that
// day so "due today" remains true for the whole day.
func resolveDue(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc), nil
	}
	return parseInstant(s, loc)
}

func resolveStart(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		day, err = parseInstant(date, loc)
		if err != nil {
			return time.Time{}, err
		}
	}
	h, m := 9, 0 // unscheduled start defaults to the morning
	if timeOfDay != "" {
		h, m, err = parseTimeOfDay(timeOfDay)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), nil
}

func parseTimeOfDay(s string) (hour, minute int, err error) {
	t, perr := time.Parse("15:04", s)
	if perr != nil {
		return 0, 0, ErrBadTimeOfDay
	}
	return t.Hour(), t.Minute(), nil
}

func parseInstant(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
