package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/felixgeelhaar/momentum/pkg/observability"
)

// Weight nudge step and bounds for the learned dimensions.
const (
	weightStep         = 0.01
	timeAwarenessFloor = 0.02
	timeAwarenessCap   = 0.10
	contextFloor       = 0.10
	contextCap         = 0.20
)

// Personalization bonus thresholds.
const (
	hourBucketBonusThreshold   = 5
	categoryRateBonusThreshold = 0.7
	decileRateBonusThreshold   = 0.6
)

// AdaptiveWeightModel manages per-user weight vectors and completion
// patterns. Read-modify-write cycles for the same user are serialized with a
// per-user mutex; different users never contend.
type AdaptiveWeightModel struct {
	store   domain.PatternStore
	clock   Clock
	logger  *slog.Logger
	metrics observability.Metrics

	userLocks sync.Map // userID -> *sync.Mutex
}

// NewAdaptiveWeightModel creates a weight model over the given store.
func NewAdaptiveWeightModel(store domain.PatternStore, clock Clock, logger *slog.Logger, metrics observability.Metrics) *AdaptiveWeightModel {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &AdaptiveWeightModel{
		store:   store,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

func (m *AdaptiveWeightModel) lockFor(userID string) *sync.Mutex {
	mu, _ := m.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ProfileFor returns the stored profile for a user, or a fresh default one.
// The default is not persisted until the first learning call.
func (m *AdaptiveWeightModel) ProfileFor(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if userID == "" {
		return domain.NewUserProfile(), nil
	}

	profile, err := m.store.Get(ctx, userID)
	m.metrics.Counter(observability.MetricPatternStoreReads, 1)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.NewUserProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if profile.Pattern == nil {
		profile.Pattern = domain.NewUserPattern()
	}
	return profile, nil
}

// Learn runs one learning step over a batch of completed historical tasks
// and returns the renormalized weight vector.
func (m *AdaptiveWeightModel) Learn(ctx context.Context, userID string, completed []domain.TaskSnapshot, features func(domain.TaskSnapshot) float64) (domain.AdaptiveWeights, error) {
	mu := m.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	profile, err := m.ProfileFor(ctx, userID)
	if err != nil {
		return domain.AdaptiveWeights{}, err
	}
	pattern := profile.Pattern

	for _, t := range completed {
		if t.CompletedAt != nil {
			pattern.RecordCompletionTime(*t.CompletedAt)
		}
		for _, d := range t.CompletedDates {
			pattern.RecordCompletionTime(d)
		}
		pattern.RecordCategory(t.Category, t.Completed)
		pattern.RecordComplexity(features(t), t.Completed)
	}
	pattern.LastUpdated = m.clock.Now()

	weights := profile.Weights

	timeEfficiency := pattern.TimeEfficiency()
	switch {
	case timeEfficiency > 0.7:
		weights.TimeAwareness = nudgeUp(weights.TimeAwareness, timeAwarenessCap)
	case timeEfficiency < 0.3:
		weights.TimeAwareness = nudgeDown(weights.TimeAwareness, timeAwarenessFloor)
	}

	categoryEfficiency := pattern.CategoryEfficiencyMean()
	switch {
	case categoryEfficiency > 0.8:
		weights.Context = nudgeUp(weights.Context, contextCap)
	case categoryEfficiency < 0.5:
		weights.Context = nudgeDown(weights.Context, contextFloor)
	}

	profile.Weights = weights.Normalize()

	if err := m.store.Put(ctx, userID, profile); err != nil {
		return domain.AdaptiveWeights{}, fmt.Errorf("store profile for %s: %w", userID, err)
	}
	m.metrics.Counter(observability.MetricPatternStoreWrites, 1)
	m.metrics.Counter(observability.MetricWeightAdjustments, 1)

	m.logger.Debug("learning step applied",
		"user_id", userID,
		"tasks", len(completed),
		"time_efficiency", timeEfficiency,
		"category_efficiency", categoryEfficiency,
	)

	return profile.Weights, nil
}

// PersonalizationBonus computes the additive composite bonus for a task from
// the user's learned pattern.
func (m *AdaptiveWeightModel) PersonalizationBonus(pattern *domain.UserPattern, t domain.TaskSnapshot, complexity float64, now time.Time) float64 {
	if pattern == nil {
		return 0
	}

	bonus := 0.0

	if pattern.PreferredTimes[domain.HourBucket(now)] > hourBucketBonusThreshold {
		bonus += 10
	}

	if b, ok := pattern.CategoryEfficiency[t.Category]; ok && b.Rate > categoryRateBonusThreshold {
		bonus += 8
	}

	decile := domain.ComplexityDecile(complexity)
	if b, ok := pattern.ComplexityPreference[decile]; ok && b.Rate > decileRateBonusThreshold {
		bonus += 5
	}

	return bonus
}

func nudgeUp(v, limit float64) float64 {
	v += weightStep
	if v > limit {
		return limit
	}
	return v
}

func nudgeDown(v, floor float64) float64 {
	v -= weightStep
	if v < floor {
		return floor
	}
	return v
}
