// Package queries holds the read-side application handlers for the
// prioritization context.
package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/application/services"
	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// GetWeightsQuery requests the adaptive weight vector for a user.
type GetWeightsQuery struct {
	UserID string `json:"userId"`
}

// PatternSummary is a read model over the learned completion pattern.
type PatternSummary struct {
	PreferredTimes         map[string]int     `json:"preferredTimes,omitempty"`
	CategoryRates          map[string]float64 `json:"categoryRates,omitempty"`
	ComplexityRates        map[int]float64    `json:"complexityRates,omitempty"`
	TimeEfficiency         float64            `json:"timeEfficiency"`
	CategoryEfficiencyMean float64            `json:"categoryEfficiencyMean"`
	LastUpdated            *time.Time         `json:"lastUpdated,omitempty"`
}

// GetWeightsResult is the weight vector plus a pattern summary.
type GetWeightsResult struct {
	Weights domain.AdaptiveWeights `json:"weights"`
	Pattern PatternSummary         `json:"pattern"`
}

// GetWeightsHandler handles the GetWeightsQuery.
type GetWeightsHandler struct {
	model *services.AdaptiveWeightModel
}

// NewGetWeightsHandler creates a new GetWeightsHandler.
func NewGetWeightsHandler(model *services.AdaptiveWeightModel) *GetWeightsHandler {
	return &GetWeightsHandler{model: model}
}

// Handle returns the stored weights for the user, or the defaults when no
// profile exists yet.
func (h *GetWeightsHandler) Handle(ctx context.Context, q GetWeightsQuery) (*GetWeightsResult, error) {
	profile, err := h.model.ProfileFor(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	result := &GetWeightsResult{
		Weights: profile.Weights,
		Pattern: summarize(profile.Pattern),
	}
	return result, nil
}

func summarize(p *domain.UserPattern) PatternSummary {
	s := PatternSummary{
		TimeEfficiency:         0.5,
		CategoryEfficiencyMean: 0.5,
	}
	if p == nil {
		return s
	}

	s.TimeEfficiency = p.TimeEfficiency()
	s.CategoryEfficiencyMean = p.CategoryEfficiencyMean()

	if len(p.PreferredTimes) > 0 {
		s.PreferredTimes = make(map[string]int, len(p.PreferredTimes))
		for bucket, count := range p.PreferredTimes {
			s.PreferredTimes[bucket] = count
		}
	}
	if len(p.CategoryEfficiency) > 0 {
		s.CategoryRates = make(map[string]float64, len(p.CategoryEfficiency))
		for category, b := range p.CategoryEfficiency {
			s.CategoryRates[category] = b.Rate
		}
	}
	if len(p.ComplexityPreference) > 0 {
		s.ComplexityRates = make(map[int]float64, len(p.ComplexityPreference))
		for decile, b := range p.ComplexityPreference {
			s.ComplexityRates[decile] = b.Rate
		}
	}
	if !p.LastUpdated.IsZero() {
		updated := p.LastUpdated
		s.LastUpdated = &updated
	}

	return s
}
