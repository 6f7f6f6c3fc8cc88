package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// ErrRankerUnavailable is returned by TaskRanker implementations when the
// external re-ranking service cannot be reached or produced no usable
// output. Never fatal; the engine degrades to the fallback ranking.
var ErrRankerUnavailable = errors.New("external ranker unavailable")

// TaskRanker submits a prepared ranking prompt to an external
// text-completion service and returns the raw completion. Implementations
// must bound the call with a timeout and make exactly one attempt.
type TaskRanker interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Impact and context lookup tables.
var impactScores = map[domain.Priority]float64{
	domain.PriorityHigh:   90,
	domain.PriorityMedium: 60,
	domain.PriorityLow:    30,
}

var contextScores = map[string]float64{
	domain.CategoryWork:     85,
	domain.CategoryAcademic: 80,
	domain.CategoryPersonal: 50,
}

const (
	defaultImpact  = 60
	defaultContext = 60

	// Signal-driven adjustments.
	criticalUrgencyBoost = 15
	highUrgencyBoost     = 8
	highImpactBoost      = 10

	// Risk-driven adjustments.
	overrunUrgencyBoost    = 10
	overrunBoostThreshold  = 0.7
	riskDiscountFactor     = 0.2
	stressEasyWinBoost     = 5
	stressBoostThreshold   = 0.8
	easyWinComplexityLimit = 40

	dailyTaskBonus = 15

	// conservativeScore is assigned when scoring a single task faults; the
	// batch continues.
	conservativeScore = 50
)

// NoTasksInsight is the single insight returned for an empty batch.
const NoTasksInsight = "No tasks to prioritize."

// EngineConfig tunes the orchestration behavior.
type EngineConfig struct {
	// Concurrency bounds the per-task scoring fan-out. Values below 1 mean
	// sequential scoring.
	Concurrency int

	// RankerTimeout bounds the single external re-ranking attempt.
	RankerTimeout time.Duration
}

// DefaultEngineConfig returns production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Concurrency:   8,
		RankerTimeout: 10 * time.Second,
	}
}

// PrioritizeInput is the per-call batch plus user context.
type PrioritizeInput struct {
	Tasks  []domain.TaskSnapshot
	UserID string

	// History holds past tasks with known estimated and actual durations,
	// used by the risk predictor.
	History []domain.TaskSnapshot
}

// PrioritizeOutput is the ranked batch with insights.
type PrioritizeOutput struct {
	Tasks      []domain.ScoredTask
	Insights   []string
	Weights    domain.AdaptiveWeights
	AIEnhanced bool
	Note       string
}

// Engine orchestrates feature extraction, urgency, risk, and adaptive
// weighting into a ranked task list.
type Engine struct {
	urgency  *UrgencyCalculator
	detector SignalDetector
	features *FeatureExtractor
	risk     *RiskPredictor
	model    *AdaptiveWeightModel
	fallback *FallbackRanker
	insights *InsightGenerator
	ranker   TaskRanker // nil disables external re-ranking
	clock    Clock
	logger   *slog.Logger
	metrics  observability.Metrics
	config   EngineConfig
}

// NewEngine creates a prioritization engine. The ranker may be nil, in which
// case the engine's own composite ranking is final.
func NewEngine(
	urgency *UrgencyCalculator,
	detector SignalDetector,
	features *FeatureExtractor,
	risk *RiskPredictor,
	model *AdaptiveWeightModel,
	fallback *FallbackRanker,
	insights *InsightGenerator,
	ranker TaskRanker,
	clock Clock,
	logger *slog.Logger,
	metrics observability.Metrics,
	config EngineConfig,
) *Engine {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.RankerTimeout <= 0 {
		config.RankerTimeout = 10 * time.Second
	}
	return &Engine{
		urgency:  urgency,
		detector: detector,
		features: features,
		risk:     risk,
		model:    model,
		fallback: fallback,
		insights: insights,
		ranker:   ranker,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		config:   config,
	}
}

// ComplexityOf exposes the complexity estimate for learning steps, so the
// weight model buckets historical tasks with the same formula used when
// scoring.
func (e *Engine) ComplexityOf(t domain.TaskSnapshot) float64 {
	signals := e.detector.Detect(t)
	return e.features.Extract(t, signals).Complexity
}

// Prioritize scores and ranks a batch of tasks for a user.
func (e *Engine) Prioritize(ctx context.Context, in PrioritizeInput) (*PrioritizeOutput, error) {
	timer := observability.StartTimer("prioritize").WithMetrics(e.metrics)
	defer timer.Stop()

	if len(in.Tasks) == 0 {
		return &PrioritizeOutput{
			Tasks:    []domain.ScoredTask{},
			Insights: []string{NoTasksInsight},
			Weights:  domain.DefaultWeights(),
		}, nil
	}

	if len(in.Tasks) == 1 {
		only := domain.ScoredTask{
			Task:      in.Tasks[0],
			Breakdown: domain.ScoreBreakdown{PersonalizedScore: 100},
			Rank:      1,
		}
		return &PrioritizeOutput{
			Tasks:    []domain.ScoredTask{only},
			Insights: []string{"Only one task outstanding. Do it now."},
			Weights:  domain.DefaultWeights(),
		}, nil
	}

	profile, err := e.model.ProfileFor(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("prioritize: %w", err)
	}

	now := e.clock.Now()
	scoringStart := time.Now()
	scored := e.scoreBatch(in.Tasks, now)
	e.metrics.Timing(observability.MetricScoringDuration, time.Since(scoringStart))

	// Barrier reached: all raw scores materialized. Derive workload stress
	// from the scored batch, then personalize.
	urgentCount := 0
	for i := range scored {
		if scored[i].Breakdown.Urgency > 80 {
			urgentCount++
		}
	}
	stress := e.risk.StressLevel(len(in.Tasks), urgentCount)

	for i := range scored {
		e.personalize(&scored[i], profile, in.History, stress, now)
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Breakdown.PersonalizedScore > scored[b].Breakdown.PersonalizedScore
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}

	out := &PrioritizeOutput{
		Tasks:   scored,
		Weights: profile.Weights,
	}

	if e.ranker != nil {
		e.applyExternalRanking(ctx, out, profile.Weights)
	}

	out.Insights = e.insights.Generate(out.Tasks, out.AIEnhanced, stress)
	e.metrics.Counter(observability.MetricTasksScored, int64(len(scored)))

	return out, nil
}

// scoreBatch runs the per-task computations with a bounded fan-out; tasks
// have no cross-task dependencies during this phase. A fault while scoring
// one task is logged and yields a conservative default instead of aborting
// the batch.
func (e *Engine) scoreBatch(tasks []domain.TaskSnapshot, now time.Time) []domain.ScoredTask {
	scored := make([]domain.ScoredTask, len(tasks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.config.Concurrency)
	for i := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("task scoring fault, assigning conservative default",
						"task_id", tasks[idx].ID,
						"panic", r,
					)
					e.metrics.Counter(observability.MetricScoringFaults, 1)
					scored[idx] = domain.ScoredTask{
						Task: tasks[idx],
						Breakdown: domain.ScoreBreakdown{
							Urgency:           conservativeScore,
							Impact:            conservativeScore,
							Complexity:        conservativeScore,
							Context:           conservativeScore,
							TimeAwareness:     conservativeScore,
							PersonalizedScore: conservativeScore,
						},
						EstimatedMinutes: 30,
					}
				}
			}()
			scored[idx] = e.scoreTask(tasks[idx], now)
		}(i)
	}
	wg.Wait()

	return scored
}

// scoreTask computes the raw dimensional scores for one task.
func (e *Engine) scoreTask(t domain.TaskSnapshot, now time.Time) domain.ScoredTask {
	signals := e.detector.Detect(t)
	features := e.features.Extract(t, signals)
	urgency := e.urgency.CalculateAt(t, now)

	urgencyScore := urgency.Urgency
	if signals.UrgencyCritical {
		urgencyScore += criticalUrgencyBoost
	} else if signals.UrgencyHigh {
		urgencyScore += highUrgencyBoost
	}
	urgencyScore = domain.Clamp100(urgencyScore)

	impact, ok := impactScores[t.Priority]
	if !ok {
		impact = defaultImpact
	}
	if signals.ImpactHigh {
		impact += highImpactBoost
	}
	impact = domain.Clamp100(impact)

	contextScore, ok := contextScores[t.Category]
	if !ok {
		contextScore = defaultContext
	}

	// The time-awareness dimension centers at a neutral 50 and scales the
	// fit bonus so a full +20 saturates the dimension.
	timeAwareness := domain.Clamp100(50 + urgency.TimeOfDayBonus*2.5)

	return domain.ScoredTask{
		Task: t,
		Breakdown: domain.ScoreBreakdown{
			Urgency:          urgencyScore,
			Impact:           impact,
			Complexity:       features.Complexity,
			Context:          contextScore,
			TimeAwareness:    timeAwareness,
			CapacityPressure: urgency.CapacityPressure,
		},
		EstimatedMinutes: features.EstimatedMinutes,
		TierScore:        urgency.Tier,
		TimeOfDayBonus:   urgency.TimeOfDayBonus,
	}
}

// personalize folds risk factors, the adaptive weight vector, and learned
// pattern bonuses into the final composite score.
func (e *Engine) personalize(s *domain.ScoredTask, profile *domain.UserProfile, history []domain.TaskSnapshot, stress float64, now time.Time) {
	overrun := e.risk.OverrunProbability(s.Task, s.EstimatedMinutes, history)
	s.Breakdown.Risk = domain.RiskFactors{
		OverrunProbability: overrun,
		StressLevel:        stress,
	}

	if overrun > overrunBoostThreshold {
		s.Breakdown.Urgency = domain.Clamp100(s.Breakdown.Urgency + overrunUrgencyBoost)
	}
	if stress > stressBoostThreshold && s.Breakdown.Complexity < easyWinComplexityLimit {
		// Bias toward easy wins during overload.
		s.Breakdown.Impact = domain.Clamp100(s.Breakdown.Impact + stressEasyWinBoost)
	}

	w := profile.Weights
	composite := s.Breakdown.Urgency*w.Urgency +
		s.Breakdown.Impact*w.Impact +
		s.Breakdown.Complexity*w.Complexity +
		s.Breakdown.Context*w.Context +
		s.Breakdown.TimeAwareness*w.TimeAwareness

	composite += e.model.PersonalizationBonus(profile.Pattern, s.Task, s.Breakdown.Complexity, now)

	if s.Task.IsDaily {
		composite += dailyTaskBonus
	}

	composite *= 1 - overrun*riskDiscountFactor

	s.Breakdown.PersonalizedScore = domain.Clamp100(composite)
}

// applyExternalRanking submits the batch to the external ranker and reorders
// on success. Any failure routes to the deterministic fallback ranking and
// flags the response as non-AI.
func (e *Engine) applyExternalRanking(ctx context.Context, out *PrioritizeOutput, weights domain.AdaptiveWeights) {
	e.metrics.Counter(observability.MetricRankerCalls, 1)

	rankCtx, cancel := context.WithTimeout(ctx, e.config.RankerTimeout)
	defer cancel()

	prompt := BuildRankingPrompt(out.Tasks, weights)
	completion, err := e.ranker.Complete(rankCtx, prompt)
	if err == nil {
		if reordered, ok := reorderByIDList(out.Tasks, completion); ok {
			out.Tasks = reordered
			for i := range out.Tasks {
				out.Tasks[i].Rank = i + 1
			}
			out.AIEnhanced = true
			return
		}
		err = fmt.Errorf("%w: unparsable completion", ErrRankerUnavailable)
	}

	e.logger.Warn("external ranking failed, using fallback ranking", "error", err)
	e.metrics.Counter(observability.MetricRankerFallbacks, 1)

	out.Tasks = e.fallbackOrder(out.Tasks)
	for i := range out.Tasks {
		out.Tasks[i].Rank = i + 1
	}
	out.AIEnhanced = false
	out.Note = "External ranking unavailable; deterministic fallback ranking applied."
}

// fallbackOrder reorders scored tasks by the fallback ranker's integer
// scores while preserving each task's computed breakdown.
func (e *Engine) fallbackOrder(scored []domain.ScoredTask) []domain.ScoredTask {
	now := e.clock.Now()
	order := make([]int, len(scored))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.fallback.Score(scored[order[a]].Task, now) > e.fallback.Score(scored[order[b]].Task, now)
	})

	ranked := make([]domain.ScoredTask, len(scored))
	for i, idx := range order {
		ranked[i] = scored[idx]
	}
	return ranked
}

// BuildRankingPrompt formats a deterministic text summary of the batch for
// the external ranker.
func BuildRankingPrompt(scored []domain.ScoredTask, weights domain.AdaptiveWeights) string {
	var b strings.Builder
	b.WriteString("Rank the following tasks for the user. Respond with a comma-separated list of task IDs only, most important first.\n\n")
	b.WriteString(fmt.Sprintf(
		"Adaptive weights: urgency %.0f%%, impact %.0f%%, complexity %.0f%%, context %.0f%%, time awareness %.0f%%.\n\n",
		weights.Urgency*100, weights.Impact*100, weights.Complexity*100, weights.Context*100, weights.TimeAwareness*100,
	))

	for _, s := range scored {
		t := s.Task
		b.WriteString(fmt.Sprintf("Task %s: %s\n", t.ID, t.Title))
		if t.Description != "" {
			b.WriteString(fmt.Sprintf("  Description: %s\n", t.Description))
		}
		b.WriteString(fmt.Sprintf("  Priority: %s, Category: %s\n", t.Priority, t.Category))
		if t.DueAt != nil {
			b.WriteString(fmt.Sprintf("  Due: %s\n", t.DueAt.Format(time.RFC3339)))
		}
		if t.StartAt != nil {
			b.WriteString(fmt.Sprintf("  Starts: %s\n", t.StartAt.Format(time.RFC3339)))
		}
		if t.IsDaily {
			b.WriteString("  Recurs daily\n")
		}
		bd := s.Breakdown
		b.WriteString(fmt.Sprintf(
			"  Scores: urgency %.0f, impact %.0f, complexity %.0f, context %.0f, time awareness %.0f, composite %.1f\n",
			bd.Urgency, bd.Impact, bd.Complexity, bd.Context, bd.TimeAwareness, bd.PersonalizedScore,
		))
		b.WriteString(fmt.Sprintf(
			"  Risk: overrun %.2f, stress %.2f\n\n",
			bd.Risk.OverrunProbability, bd.Risk.StressLevel,
		))
	}

	return b.String()
}

// reorderByIDList applies a comma-separated ID ordering. Unknown IDs are
// dropped; known tasks missing from the list are appended in computed-rank
// order so no task is ever lost. Returns false when the completion contains
// no known IDs.
func reorderByIDList(scored []domain.ScoredTask, completion string) ([]domain.ScoredTask, bool) {
	byID := make(map[string]int, len(scored))
	for i, s := range scored {
		byID[s.Task.ID] = i
	}

	used := make(map[string]bool, len(scored))
	reordered := make([]domain.ScoredTask, 0, len(scored))
	for _, raw := range strings.Split(completion, ",") {
		id := strings.TrimSpace(raw)
		idx, known := byID[id]
		if !known || used[id] {
			continue
		}
		used[id] = true
		reordered = append(reordered, scored[idx])
	}

	if len(reordered) == 0 {
		return nil, false
	}

	// Safety net: append anything the ranker dropped, in computed order.
	for _, s := range scored {
		if !used[s.Task.ID] {
			reordered = append(reordered, s)
		}
	}

	return reordered, true
}
