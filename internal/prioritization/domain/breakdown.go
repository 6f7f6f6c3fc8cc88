package domain

// RiskFactors holds the risk predictor outputs for one task.
type RiskFactors struct {
	// OverrunProbability is the predicted chance the task runs long, in [0,1].
	OverrunProbability float64 `json:"overrunProbability"`

	// StressLevel reflects the user's current workload pressure, in [0,1].
	StressLevel float64 `json:"stressLevel"`
}

// ScoreBreakdown is the per-call dimensional score for one task. All bounded
// dimensions are clamped to [0,100].
type ScoreBreakdown struct {
	Urgency          float64     `json:"urgency"`
	Impact           float64     `json:"impact"`
	Complexity       float64     `json:"complexity"`
	Context          float64     `json:"context"`
	TimeAwareness    float64     `json:"timeAwareness"`
	CapacityPressure float64     `json:"capacityPressure"`
	Risk             RiskFactors `json:"riskFactors"`

	// PersonalizedScore is the final weighted composite used for ranking.
	PersonalizedScore float64 `json:"personalizedScore"`
}

// ScoredTask pairs a snapshot with its computed breakdown and rank.
type ScoredTask struct {
	Task             TaskSnapshot
	Breakdown        ScoreBreakdown
	EstimatedMinutes int
	TierScore        float64 // raw deadline/start tier before bonuses
	TimeOfDayBonus   float64
	Rank             int
}

// Clamp100 bounds a score to [0,100].
func Clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Clamp01 bounds a value to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
