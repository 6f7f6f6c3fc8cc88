package domain

// AdaptiveWeights is the per-user five-dimensional weight vector. A valid
// vector has non-negative components summing to exactly 1.
type AdaptiveWeights struct {
	Urgency       float64 `json:"urgency"`
	Impact        float64 `json:"impact"`
	Complexity    float64 `json:"complexity"`
	Context       float64 `json:"context"`
	TimeAwareness float64 `json:"timeAwareness"`
}

// DefaultWeights returns the seed vector for users without history.
func DefaultWeights() AdaptiveWeights {
	return AdaptiveWeights{
		Urgency:       0.35,
		Impact:        0.25,
		Complexity:    0.20,
		Context:       0.15,
		TimeAwareness: 0.05,
	}
}

// Sum returns the total of all five components.
func (w AdaptiveWeights) Sum() float64 {
	return w.Urgency + w.Impact + w.Complexity + w.Context + w.TimeAwareness
}

// Normalize rescales the vector so the components sum to exactly 1.
// A degenerate all-zero vector resets to the default seed.
func (w AdaptiveWeights) Normalize() AdaptiveWeights {
	sum := w.Sum()
	if sum <= 0 {
		return DefaultWeights()
	}
	return AdaptiveWeights{
		Urgency:       w.Urgency / sum,
		Impact:        w.Impact / sum,
		Complexity:    w.Complexity / sum,
		Context:       w.Context / sum,
		TimeAwareness: w.TimeAwareness / sum,
	}
}

// IsValid reports whether every component is non-negative.
func (w AdaptiveWeights) IsValid() bool {
	return w.Urgency >= 0 && w.Impact >= 0 && w.Complexity >= 0 &&
		w.Context >= 0 && w.TimeAwareness >= 0
}
