package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

func newInsightGenerator(now time.Time) *InsightGenerator {
	clock := FixedClock{Time: now}
	return NewInsightGenerator(NewUrgencyCalculator(clock), clock)
}

func scoredWith(id string, tier float64, due *time.Time) domain.ScoredTask {
	return domain.ScoredTask{
		Task:      domain.TaskSnapshot{ID: id, Title: id, DueAt: due},
		TierScore: tier,
	}
}

func TestInsightGeneratorTimeSummary(t *testing.T) {
	g := newInsightGenerator(testNow)

	insights := g.Generate(nil, false, 0)
	require.NotEmpty(t, insights)
	assert.Equal(t, "Current time 10:00 with 12.0 work hours remaining today.", insights[0])
}

func TestInsightGeneratorDeadlineCounts(t *testing.T) {
	g := newInsightGenerator(testNow)

	past := testNow.Add(-time.Hour)
	today := testNow.Add(9 * time.Hour)
	scored := []domain.ScoredTask{
		scoredWith("overdue", 100, &past),
		scoredWith("immediate", 98, nil),
		scoredWith("hourly", 94, nil),
		scoredWith("today", 82, &today),
	}

	insights := g.Generate(scored, false, 0)
	joined := strings.Join(insights, "\n")

	assert.Contains(t, joined, "1 task is overdue. Handle these first.")
	assert.Contains(t, joined, "1 task is due within the next 10 minutes.")
	assert.Contains(t, joined, "1 task is due within the hour.")
	assert.Contains(t, joined, "1 more task is due later today.")
}

func TestInsightGeneratorOmitsZeroCounts(t *testing.T) {
	g := newInsightGenerator(testNow)

	insights := g.Generate([]domain.ScoredTask{scoredWith("plain", 20, nil)}, false, 0)
	joined := strings.Join(insights, "\n")

	assert.NotContains(t, joined, "overdue")
	assert.NotContains(t, joined, "quick")
	assert.NotContains(t, joined, "AI")
	// Only the time summary should remain.
	assert.Len(t, insights, 1)
}

func TestInsightGeneratorSecondaries(t *testing.T) {
	g := newInsightGenerator(testNow)

	complex := scoredWith("complex", 20, nil)
	complex.Breakdown.Complexity = 85

	quick := scoredWith("quick", 20, nil)
	quick.EstimatedMinutes = 15

	optimized := scoredWith("opt", 20, nil)
	optimized.TimeOfDayBonus = 20

	risky := scoredWith("risky", 20, nil)
	risky.Breakdown.Risk.OverrunProbability = 0.9

	insights := g.Generate([]domain.ScoredTask{complex, quick, optimized, risky}, true, 0.9)
	joined := strings.Join(insights, "\n")

	assert.Contains(t, joined, "1 task is well matched to this time of day.")
	assert.Contains(t, joined, "1 task is cognitively demanding.")
	assert.Contains(t, joined, "1 quick win under 20 minutes")
	assert.Contains(t, joined, "4 tasks were re-ranked with AI assistance.")
	assert.Contains(t, joined, "1 task is at high risk of overrunning the estimate.")
	assert.Contains(t, joined, "Workload stress is high.")
}

func TestInsightGeneratorFocusRecommendation(t *testing.T) {
	t.Run("tight evening", func(t *testing.T) {
		evening := time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC)
		g := newInsightGenerator(evening)

		pressured := scoredWith("p", 86, nil)
		pressured.Breakdown.CapacityPressure = 25

		insights := g.Generate([]domain.ScoredTask{pressured}, false, 0)
		joined := strings.Join(insights, "\n")
		assert.Contains(t, joined, "Very little of the work day remains.")
		assert.Contains(t, joined, "pressing task")
	})

	t.Run("moderate afternoon", func(t *testing.T) {
		afternoon := time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)
		g := newInsightGenerator(afternoon)

		insights := g.Generate([]domain.ScoredTask{scoredWith("t", 50, nil)}, false, 0)
		joined := strings.Join(insights, "\n")
		assert.Contains(t, joined, "Moderate time pressure.")
	})
}

func TestInsightGeneratorDeterministic(t *testing.T) {
	g := newInsightGenerator(testNow)
	scored := []domain.ScoredTask{scoredWith("a", 98, nil), scoredWith("b", 50, nil)}

	first := g.Generate(scored, false, 0.3)
	second := g.Generate(scored, false, 0.3)
	assert.Equal(t, first, second)
}
