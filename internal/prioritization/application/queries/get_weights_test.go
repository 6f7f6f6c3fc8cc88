package queries

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/services"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

type stubPatternStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.UserProfile
	getErr   error
}

func newStubPatternStore() *stubPatternStore {
	return &stubPatternStore{profiles: make(map[string]*domain.UserProfile)}
}

func (s *stubPatternStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p, nil
}

func (s *stubPatternStore) Put(ctx context.Context, userID string, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = profile
	return nil
}

func TestGetWeightsHandler_Handle(t *testing.T) {
	ctx := context.Background()
	clock := services.FixedClock{Time: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}

	t.Run("unknown user gets defaults", func(t *testing.T) {
		store := newStubPatternStore()
		handler := NewGetWeightsHandler(services.NewAdaptiveWeightModel(store, clock, nil, nil))

		result, err := handler.Handle(ctx, GetWeightsQuery{UserID: "nobody"})
		require.NoError(t, err)

		assert.Equal(t, domain.DefaultWeights(), result.Weights)
		assert.InDelta(t, 0.5, result.Pattern.TimeEfficiency, 1e-9)
		assert.InDelta(t, 0.5, result.Pattern.CategoryEfficiencyMean, 1e-9)
		assert.Nil(t, result.Pattern.LastUpdated)
	})

	t.Run("summarizes a learned pattern", func(t *testing.T) {
		store := newStubPatternStore()
		profile := domain.NewUserProfile()
		profile.Pattern.RecordCompletionTime(time.Date(2026, 3, 9, 9, 30, 0, 0, time.UTC))
		profile.Pattern.RecordCompletionTime(time.Date(2026, 3, 9, 9, 50, 0, 0, time.UTC))
		profile.Pattern.RecordCategory("Work", true)
		profile.Pattern.RecordCategory("Work", false)
		profile.Pattern.RecordComplexity(42, true)
		profile.Pattern.LastUpdated = time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
		require.NoError(t, store.Put(ctx, "u1", profile))

		result, err := newWeightsHandler(store).Handle(ctx, GetWeightsQuery{UserID: "u1"})
		require.NoError(t, err)

		assert.Equal(t, 2, result.Pattern.PreferredTimes["9-10"])
		assert.InDelta(t, 0.5, result.Pattern.CategoryRates["Work"], 1e-9)
		assert.InDelta(t, 1.0, result.Pattern.ComplexityRates[40], 1e-9)
		assert.InDelta(t, 1.0, result.Pattern.TimeEfficiency, 1e-9)
		require.NotNil(t, result.Pattern.LastUpdated)
		assert.Equal(t, profile.Pattern.LastUpdated, *result.Pattern.LastUpdated)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		store := newStubPatternStore()
		store.getErr = assert.AnError

		_, err := newWeightsHandler(store).Handle(ctx, GetWeightsQuery{UserID: "u1"})
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func newWeightsHandler(store domain.PatternStore) *GetWeightsHandler {
	clock := services.FixedClock{Time: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	return NewGetWeightsHandler(services.NewAdaptiveWeightModel(store, clock, nil, nil))
}
