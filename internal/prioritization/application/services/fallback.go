package services

import (
	"sort"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// Fallback scoring constants. The fallback path is deterministic and does
// not consult the adaptive weight vector, so it stays correct when every
// other component is unavailable.
var fallbackPriorityScores = map[domain.Priority]int{
	domain.PriorityHigh:   200,
	domain.PriorityMedium: 100,
	domain.PriorityLow:    50,
}

var fallbackCategoryScores = map[string]int{
	domain.CategoryWork:     150,
	domain.CategoryAcademic: 120,
	domain.CategoryPersonal: 80,
}

const (
	fallbackDefaultCategory = 100
	fallbackDailyBonus      = 30
)

// FallbackRanker is the deterministic ranking path used whenever external
// re-ranking is unavailable or fails.
type FallbackRanker struct {
	clock Clock
}

// NewFallbackRanker creates a fallback ranker.
func NewFallbackRanker(clock Clock) *FallbackRanker {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	return &FallbackRanker{clock: clock}
}

// Rank orders tasks by descending fallback score. Ties keep input order.
func (r *FallbackRanker) Rank(tasks []domain.TaskSnapshot) []domain.TaskSnapshot {
	now := r.clock.Now()
	scores := make([]int, len(tasks))
	for i, t := range tasks {
		scores[i] = r.Score(t, now)
	}

	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranked := make([]domain.TaskSnapshot, len(tasks))
	for i, idx := range order {
		ranked[i] = tasks[idx]
	}
	return ranked
}

// Score computes the integer fallback score for one task.
func (r *FallbackRanker) Score(t domain.TaskSnapshot, now time.Time) int {
	score := r.timeScore(t, now)

	score += fallbackPriorityScores[t.Priority]

	if cat, ok := fallbackCategoryScores[t.Category]; ok {
		score += cat
	} else {
		score += fallbackDefaultCategory
	}

	if t.IsDaily {
		score += fallbackDailyBonus
	}

	return score
}

// timeScore is the urgency tier table scaled by 100, with a diminishing
// 1000/daysUntilDue term beyond two weeks.
func (r *FallbackRanker) timeScore(t domain.TaskSnapshot, now time.Time) int {
	if t.DueAt != nil {
		return r.deadlineScore(*t.DueAt, now)
	}
	if t.StartAt != nil {
		return r.startScore(*t.StartAt, now)
	}
	return 2000
}

func (r *FallbackRanker) deadlineScore(due, now time.Time) int {
	minutes := due.Sub(now).Minutes()

	switch {
	case minutes < 0:
		return 10000
	case minutes <= 10:
		return 9800
	case minutes <= 30:
		return 9600
	case minutes <= 60:
		return 9400
	case minutes <= 120:
		return 9200
	case minutes <= 240:
		return 9000
	}

	if sameDay(due, now) {
		remaining := float64(workDayEndHour) - (float64(now.Hour()) + float64(now.Minute())/60)
		switch {
		case remaining <= 4:
			return 8600
		case remaining <= 8:
			return 8400
		default:
			return 8200
		}
	}

	days := daysBetween(now, due)
	switch {
	case days == 1:
		return 8500
	case days <= 3:
		return 7000
	case days <= 7:
		return 5000
	case days <= 14:
		return 3000
	default:
		return 1000 / days
	}
}

func (r *FallbackRanker) startScore(start, now time.Time) int {
	minutes := start.Sub(now).Minutes()

	switch {
	case minutes <= 0:
		return 10000
	case minutes <= 10:
		return 9700
	case minutes <= 30:
		return 9500
	case minutes <= 60:
		return 9300
	case minutes <= 120:
		return 9100
	case minutes <= 240:
		return 8900
	}

	startHour := start.Hour()
	nowHour := now.Hour()
	if startHour >= 6 && startHour <= 10 && nowHour <= 12 {
		return 8700
	}
	if startHour >= 18 && nowHour >= 15 {
		return 8500
	}
	return 7500
}
