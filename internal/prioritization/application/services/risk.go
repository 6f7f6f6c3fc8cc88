package services

import (
	"math"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// Estimates within this window of a historical task count as "similar".
const similarEstimateWindow = 30 // minutes

// RiskPredictor estimates overrun probability from historical similar tasks
// and a stress level from the current workload.
type RiskPredictor struct{}

// NewRiskPredictor creates a risk predictor.
func NewRiskPredictor() *RiskPredictor {
	return &RiskPredictor{}
}

// OverrunProbability averages (actual/estimated - 1) across historical tasks
// in the same category with a similar estimate, clamped to [0,1]. Returns 0
// when no comparable history exists.
func (p *RiskPredictor) OverrunProbability(t domain.TaskSnapshot, estimatedMinutes int, history []domain.TaskSnapshot) float64 {
	sum := 0.0
	matches := 0

	for _, h := range history {
		if h.Category != t.Category {
			continue
		}
		if h.EstimatedMinutes <= 0 || h.ActualMinutes <= 0 {
			continue
		}
		if math.Abs(float64(h.EstimatedMinutes-estimatedMinutes)) > similarEstimateWindow {
			continue
		}
		sum += float64(h.ActualMinutes)/float64(h.EstimatedMinutes) - 1
		matches++
	}

	if matches == 0 {
		return 0
	}
	return domain.Clamp01(sum / float64(matches))
}

// StressLevel maps the active workload to [0,1]:
// min(0.1*active + 0.2*urgent, 1), where urgent counts tasks whose urgency
// score exceeds 80.
func (p *RiskPredictor) StressLevel(activeTasks, urgentTasks int) float64 {
	stress := 0.1*float64(activeTasks) + 0.2*float64(urgentTasks)
	if stress > 1 {
		return 1
	}
	return stress
}
