package services

import (
	"strings"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// Keyword families that raise or lower the complexity estimate. Each family
// that matches contributes once.
var (
	complexFamilies = [][]string{
		{"research", "investigate", "explore"},
		{"design", "architect", "model"},
		{"implement", "build", "develop", "refactor"},
		{"analyze", "evaluate", "compare"},
		{"write", "essay", "thesis", "paper"},
	}
	simpleFamilies = [][]string{
		{"call", "phone"},
		{"email", "reply", "message"},
		{"check", "verify", "confirm"},
		{"buy", "order", "pick up"},
	}
)

// TaskFeatures holds the text-derived attributes of one task.
type TaskFeatures struct {
	// EstimatedMinutes is the duration estimate used by the risk predictor
	// and quick-win insights.
	EstimatedMinutes int

	// Complexity is the cognitive-complexity score in [10,100].
	Complexity float64
}

// FeatureExtractor derives duration and complexity estimates from task text.
type FeatureExtractor struct{}

// NewFeatureExtractor creates a feature extractor.
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract computes features for a task given its extracted signals.
func (e *FeatureExtractor) Extract(t domain.TaskSnapshot, signals SignalSet) TaskFeatures {
	minutes := e.EstimateMinutes(t)
	return TaskFeatures{
		EstimatedMinutes: minutes,
		Complexity:       e.complexity(t, signals, minutes),
	}
}

// EstimateMinutes derives a duration estimate. An explicit estimate on the
// snapshot wins; otherwise keywords decide, first match in order.
func (e *FeatureExtractor) EstimateMinutes(t domain.TaskSnapshot) int {
	if t.EstimatedMinutes > 0 {
		return t.EstimatedMinutes
	}

	text := t.Text()
	switch {
	case strings.Contains(text, "quick") || strings.Contains(text, "minute"):
		return 15
	case strings.Contains(text, "hour"):
		return 60
	case strings.Contains(text, "day") || strings.Contains(text, "project"):
		return 240
	default:
		return 30
	}
}

// complexity starts from a neutral 50 and adjusts for keyword families,
// estimated duration, and effort signals, clamped to [10,100].
func (e *FeatureExtractor) complexity(t domain.TaskSnapshot, signals SignalSet, estimatedMinutes int) float64 {
	text := t.Text()
	score := 50.0

	raise := 0.0
	for _, family := range complexFamilies {
		if containsAny(text, family) {
			raise += 10
		}
	}
	if raise > 30 {
		raise = 30
	}
	score += raise

	lower := 0.0
	for _, family := range simpleFamilies {
		if containsAny(text, family) {
			lower += 8
		}
	}
	if lower > 25 {
		lower = 25
	}
	score -= lower

	switch {
	case estimatedMinutes <= 15:
		score -= 15
	case estimatedMinutes >= 120:
		score += 20
	}

	if signals.EffortQuick {
		score -= 20
	}
	if signals.EffortComplex {
		score += 15
	}

	if score < 10 {
		score = 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
