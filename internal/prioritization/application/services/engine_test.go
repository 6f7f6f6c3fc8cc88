package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

type fakeRanker struct {
	completion string
	err        error
	calls      int
}

func (r *fakeRanker) Complete(ctx context.Context, prompt string) (string, error) {
	r.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.completion, r.err
}

// panicDetector simulates a faulting scoring component for one task.
type panicDetector struct {
	inner    SignalDetector
	panicsOn string
}

func (d *panicDetector) Detect(t domain.TaskSnapshot) SignalSet {
	if t.ID == d.panicsOn {
		panic("detector fault")
	}
	return d.inner.Detect(t)
}

func newTestEngine(ranker TaskRanker, detector SignalDetector) *Engine {
	clock := FixedClock{Time: testNow}
	if detector == nil {
		detector = NewKeywordSignalDetector()
	}
	urgency := NewUrgencyCalculator(clock)
	model := NewAdaptiveWeightModel(newFakePatternStore(), clock, nil, nil)
	return NewEngine(
		urgency,
		detector,
		NewFeatureExtractor(),
		NewRiskPredictor(),
		model,
		NewFallbackRanker(clock),
		NewInsightGenerator(urgency, clock),
		ranker,
		clock,
		nil,
		nil,
		EngineConfig{Concurrency: 4, RankerTimeout: time.Second},
	)
}

func batchOf(ids ...string) []domain.TaskSnapshot {
	tasks := make([]domain.TaskSnapshot, len(ids))
	for i, id := range ids {
		tasks[i] = domain.TaskSnapshot{ID: id, Title: id, Priority: domain.PriorityMedium, Category: domain.CategoryPersonal}
	}
	return tasks
}

func TestPrioritizeEmptyBatch(t *testing.T) {
	e := newTestEngine(nil, nil)

	out, err := e.Prioritize(context.Background(), PrioritizeInput{})
	require.NoError(t, err)

	assert.Empty(t, out.Tasks)
	assert.Equal(t, []string{NoTasksInsight}, out.Insights)
	assert.Equal(t, domain.DefaultWeights(), out.Weights)
	assert.False(t, out.AIEnhanced)
}

func TestPrioritizeSingleTask(t *testing.T) {
	e := newTestEngine(&fakeRanker{completion: "a"}, nil)

	out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("a")})
	require.NoError(t, err)

	require.Len(t, out.Tasks, 1)
	assert.Equal(t, 100.0, out.Tasks[0].Breakdown.PersonalizedScore)
	assert.Equal(t, 1, out.Tasks[0].Rank)
	assert.Equal(t, []string{"Only one task outstanding. Do it now."}, out.Insights)
	assert.False(t, out.AIEnhanced, "single task never calls the ranker")
}

func TestPrioritizeRanksOverdueFirst(t *testing.T) {
	e := newTestEngine(nil, nil)

	tasks := batchOf("later", "overdue", "none")
	past := testNow.Add(-2 * time.Hour)
	nextWeek := testNow.Add(6 * 24 * time.Hour)
	tasks[0].DueAt = &nextWeek
	tasks[1].DueAt = &past

	out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: tasks})
	require.NoError(t, err)

	require.Len(t, out.Tasks, 3)
	assert.Equal(t, "overdue", out.Tasks[0].Task.ID)
	assert.Equal(t, 100.0, out.Tasks[0].Breakdown.Urgency)
	assert.Equal(t, []int{1, 2, 3}, []int{out.Tasks[0].Rank, out.Tasks[1].Rank, out.Tasks[2].Rank})
}

func TestPrioritizeIsDeterministic(t *testing.T) {
	e := newTestEngine(nil, nil)

	tasks := batchOf("a", "b", "c", "d")
	due := testNow.Add(3 * time.Hour)
	tasks[2].DueAt = &due
	tasks[3].Priority = domain.PriorityHigh

	first, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: tasks})
	require.NoError(t, err)
	second, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: tasks})
	require.NoError(t, err)

	require.Equal(t, len(first.Tasks), len(second.Tasks))
	for i := range first.Tasks {
		assert.Equal(t, first.Tasks[i].Task.ID, second.Tasks[i].Task.ID)
		assert.Equal(t, first.Tasks[i].Breakdown.PersonalizedScore, second.Tasks[i].Breakdown.PersonalizedScore)
	}
	assert.Equal(t, first.Insights, second.Insights)
}

func TestPrioritizeStableTies(t *testing.T) {
	e := newTestEngine(nil, nil)

	out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("x", "y", "z")})
	require.NoError(t, err)

	require.Len(t, out.Tasks, 3)
	assert.Equal(t, "x", out.Tasks[0].Task.ID)
	assert.Equal(t, "y", out.Tasks[1].Task.ID)
	assert.Equal(t, "z", out.Tasks[2].Task.ID)
}

func TestPrioritizeWeightsInOutput(t *testing.T) {
	e := newTestEngine(nil, nil)

	out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("a", "b")})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Weights.Sum(), 1e-9)
}

func TestPrioritizeDailyBonus(t *testing.T) {
	e := newTestEngine(nil, nil)

	tasks := batchOf("daily", "plain")
	tasks[0].IsDaily = true

	out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: tasks})
	require.NoError(t, err)
	assert.Equal(t, "daily", out.Tasks[0].Task.ID)
}

func TestPrioritizeExternalRanking(t *testing.T) {
	t.Run("successful completion reorders and flags", func(t *testing.T) {
		ranker := &fakeRanker{completion: "c, a, b"}
		e := newTestEngine(ranker, nil)

		out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("a", "b", "c")})
		require.NoError(t, err)

		assert.True(t, out.AIEnhanced)
		assert.Empty(t, out.Note)
		assert.Equal(t, "c", out.Tasks[0].Task.ID)
		assert.Equal(t, "a", out.Tasks[1].Task.ID)
		assert.Equal(t, "b", out.Tasks[2].Task.ID)
		assert.Equal(t, []int{1, 2, 3}, []int{out.Tasks[0].Rank, out.Tasks[1].Rank, out.Tasks[2].Rank})
		assert.Equal(t, 1, ranker.calls)
	})

	t.Run("failure falls back to deterministic ranking", func(t *testing.T) {
		e := newTestEngine(&fakeRanker{err: errors.New("connection refused")}, nil)

		tasks := batchOf("a", "b")
		due := testNow.Add(30 * time.Minute)
		tasks[1].DueAt = &due

		out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: tasks})
		require.NoError(t, err, "ranker failure is never fatal")

		assert.False(t, out.AIEnhanced)
		assert.NotEmpty(t, out.Note)
		assert.Equal(t, "b", out.Tasks[0].Task.ID, "fallback puts the deadline first")
	})

	t.Run("unparsable completion falls back", func(t *testing.T) {
		e := newTestEngine(&fakeRanker{completion: "no ids here"}, nil)

		out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("a", "b")})
		require.NoError(t, err)
		assert.False(t, out.AIEnhanced)
		assert.NotEmpty(t, out.Note)
	})

	t.Run("failure ordering matches the fallback ranker", func(t *testing.T) {
		failing := newTestEngine(&fakeRanker{err: errors.New("timeout")}, nil)

		tasks := batchOf("a", "b", "c")
		soon := testNow.Add(20 * time.Minute)
		tomorrow := testNow.Add(26 * time.Hour)
		tasks[0].DueAt = &tomorrow
		tasks[2].DueAt = &soon

		out, err := failing.Prioritize(context.Background(), PrioritizeInput{Tasks: tasks})
		require.NoError(t, err)

		direct := NewFallbackRanker(FixedClock{Time: testNow}).Rank(tasks)
		require.Len(t, out.Tasks, len(direct))
		for i := range direct {
			assert.Equal(t, direct[i].ID, out.Tasks[i].Task.ID)
		}
	})

	t.Run("nil ranker keeps the composite ordering", func(t *testing.T) {
		e := newTestEngine(nil, nil)

		out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("a", "b")})
		require.NoError(t, err)
		assert.False(t, out.AIEnhanced)
		assert.Empty(t, out.Note)
	})
}

func TestPrioritizeScoringFault(t *testing.T) {
	detector := &panicDetector{inner: NewKeywordSignalDetector(), panicsOn: "bad"}
	e := newTestEngine(nil, detector)

	out, err := e.Prioritize(context.Background(), PrioritizeInput{Tasks: batchOf("good", "bad", "also-good")})
	require.NoError(t, err, "one faulting task never aborts the batch")

	require.Len(t, out.Tasks, 3)
	var bad *domain.ScoredTask
	for i := range out.Tasks {
		if out.Tasks[i].Task.ID == "bad" {
			bad = &out.Tasks[i]
		}
	}
	require.NotNil(t, bad)
	assert.Equal(t, 50.0, bad.Breakdown.Urgency)
}

func TestReorderByIDList(t *testing.T) {
	scored := []domain.ScoredTask{
		{Task: domain.TaskSnapshot{ID: "a"}},
		{Task: domain.TaskSnapshot{ID: "b"}},
		{Task: domain.TaskSnapshot{ID: "c"}},
	}

	t.Run("applies the given order", func(t *testing.T) {
		out, ok := reorderByIDList(scored, "b, c, a")
		require.True(t, ok)
		assert.Equal(t, "b", out[0].Task.ID)
		assert.Equal(t, "c", out[1].Task.ID)
		assert.Equal(t, "a", out[2].Task.ID)
	})

	t.Run("drops unknown ids", func(t *testing.T) {
		out, ok := reorderByIDList(scored, "ghost, b, a, c")
		require.True(t, ok)
		require.Len(t, out, 3)
		assert.Equal(t, "b", out[0].Task.ID)
	})

	t.Run("appends missing tasks in computed order", func(t *testing.T) {
		out, ok := reorderByIDList(scored, "c")
		require.True(t, ok)
		require.Len(t, out, 3)
		assert.Equal(t, "c", out[0].Task.ID)
		assert.Equal(t, "a", out[1].Task.ID)
		assert.Equal(t, "b", out[2].Task.ID)
	})

	t.Run("ignores duplicates", func(t *testing.T) {
		out, ok := reorderByIDList(scored, "b, b, a, a, c")
		require.True(t, ok)
		require.Len(t, out, 3)
	})

	t.Run("rejects completions without known ids", func(t *testing.T) {
		_, ok := reorderByIDList(scored, "nothing useful")
		assert.False(t, ok)

		_, ok = reorderByIDList(scored, "")
		assert.False(t, ok)
	})
}

func TestBuildRankingPrompt(t *testing.T) {
	scored := []domain.ScoredTask{
		{Task: domain.TaskSnapshot{ID: "t1", Title: "Write report", Priority: domain.PriorityHigh, Category: domain.CategoryWork}},
		{Task: domain.TaskSnapshot{ID: "t2", Title: "Buy groceries", Priority: domain.PriorityLow, Category: domain.CategoryPersonal}},
	}

	prompt := BuildRankingPrompt(scored, domain.DefaultWeights())

	assert.Contains(t, prompt, "Task t1: Write report")
	assert.Contains(t, prompt, "Task t2: Buy groceries")
	assert.Contains(t, prompt, "urgency 35%")
	assert.True(t, strings.HasPrefix(prompt, "Rank the following tasks"))

	assert.Equal(t, prompt, BuildRankingPrompt(scored, domain.DefaultWeights()), "prompt is deterministic")
}
