package services

import (
	"fmt"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// Insight thresholds.
const (
	immediateTier          = 98
	hourlyTier             = 94
	optimizedTimeBonus     = 10
	complexInsightScore    = 70
	quickWinMinutes        = 20
	highOverrunProbability = 0.7
	highStressLevel        = 0.8
)

// InsightGenerator derives a fixed-order list of human-readable insight
// strings from a scored batch. Output is reproducible for identical input.
type InsightGenerator struct {
	urgency *UrgencyCalculator
	clock   Clock
}

// NewInsightGenerator creates an insight generator.
func NewInsightGenerator(urgency *UrgencyCalculator, clock Clock) *InsightGenerator {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	return &InsightGenerator{urgency: urgency, clock: clock}
}

// Generate produces the insight lines for a ranked batch. Lines whose
// triggering count is zero are omitted; the order is otherwise fixed.
func (g *InsightGenerator) Generate(scored []domain.ScoredTask, aiEnhanced bool, stress float64) []string {
	now := g.clock.Now()
	remaining := g.urgency.RemainingWorkHours(now)

	insights := []string{
		fmt.Sprintf("Current time %s with %.1f work hours remaining today.", now.Format("15:04"), remaining),
	}

	var overdue, immediate, hourly, dueToday int
	var optimized, pressured, complexCount, quickWins, highRisk int

	for _, s := range scored {
		t := s.Task
		switch {
		case t.DueAt != nil && t.DueAt.Before(now):
			overdue++
		case s.TierScore >= immediateTier:
			immediate++
		case s.TierScore >= hourlyTier:
			hourly++
		case t.DueAt != nil && sameDay(*t.DueAt, now):
			dueToday++
		}

		if s.TimeOfDayBonus >= optimizedTimeBonus {
			optimized++
		}
		if s.Breakdown.CapacityPressure > 0 {
			pressured++
		}
		if s.Breakdown.Complexity >= complexInsightScore {
			complexCount++
		}
		if s.EstimatedMinutes > 0 && s.EstimatedMinutes <= quickWinMinutes {
			quickWins++
		}
		if s.Breakdown.Risk.OverrunProbability > highOverrunProbability {
			highRisk++
		}
	}

	if overdue > 0 {
		insights = append(insights, fmt.Sprintf("%d %s overdue. Handle these first.", overdue, plural(overdue, "task is", "tasks are")))
	}
	if immediate > 0 {
		insights = append(insights, fmt.Sprintf("%d %s due within the next 10 minutes.", immediate, plural(immediate, "task is", "tasks are")))
	}
	if hourly > 0 {
		insights = append(insights, fmt.Sprintf("%d %s due within the hour.", hourly, plural(hourly, "task is", "tasks are")))
	}
	if dueToday > 0 {
		insights = append(insights, fmt.Sprintf("%d more %s due later today.", dueToday, plural(dueToday, "task is", "tasks are")))
	}

	if optimized > 0 {
		insights = append(insights, fmt.Sprintf("%d %s well matched to this time of day.", optimized, plural(optimized, "task is", "tasks are")))
	}

	if remaining <= 4 && pressured > 0 {
		insights = append(insights, fmt.Sprintf("Only %.1f work hours left with %d pressing %s.", remaining, pressured, plural(pressured, "task", "tasks")))
	}

	switch {
	case remaining <= 2:
		insights = append(insights, "Very little of the work day remains. Focus on short, high-urgency tasks.")
	case remaining <= 4:
		insights = append(insights, "Moderate time pressure. Prioritize what must be finished today.")
	}

	if complexCount > 0 {
		insights = append(insights, fmt.Sprintf("%d %s cognitively demanding. Schedule them for your peak focus hours.", complexCount, plural(complexCount, "task is", "tasks are")))
	}
	if quickWins > 0 {
		insights = append(insights, fmt.Sprintf("%d quick %s under %d minutes available for momentum.", quickWins, plural(quickWins, "win", "wins"), quickWinMinutes))
	}

	if aiEnhanced && len(scored) > 0 {
		insights = append(insights, fmt.Sprintf("%d %s re-ranked with AI assistance.", len(scored), plural(len(scored), "task was", "tasks were")))
	}

	if highRisk > 0 {
		insights = append(insights, fmt.Sprintf("%d %s at high risk of overrunning the estimate.", highRisk, plural(highRisk, "task is", "tasks are")))
	}

	if stress > highStressLevel {
		insights = append(insights, "Workload stress is high. Consider deferring low-impact tasks.")
	}

	return insights
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
