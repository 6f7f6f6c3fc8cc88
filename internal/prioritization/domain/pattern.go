package domain

import (
	"fmt"
	"sort"
	"time"
)

// RateBucket tracks running completion counts and the derived rate.
type RateBucket struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

// Record adds one observation and recomputes the rate.
func (b *RateBucket) Record(completed bool) {
	b.Total++
	if completed {
		b.Completed++
	}
	b.Rate = float64(b.Completed) / float64(b.Total)
}

// UserPattern is the learned completion behavior for one user.
type UserPattern struct {
	// PreferredTimes maps hour-bucket labels ("9-10") to completion counts.
	PreferredTimes map[string]int `json:"preferredTimes"`

	// CategoryEfficiency tracks completion rates per category.
	CategoryEfficiency map[string]*RateBucket `json:"categoryEfficiency"`

	// ComplexityPreference tracks completion rates per complexity decile
	// (keys are multiples of 10).
	ComplexityPreference map[int]*RateBucket `json:"complexityPreference"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// NewUserPattern creates an empty pattern.
func NewUserPattern() *UserPattern {
	return &UserPattern{
		PreferredTimes:       make(map[string]int),
		CategoryEfficiency:   make(map[string]*RateBucket),
		ComplexityPreference: make(map[int]*RateBucket),
	}
}

// HourBucket returns the label for the hour bucket containing t.
func HourBucket(t time.Time) string {
	return HourBucketLabel(t.Hour())
}

// HourBucketLabel formats an hour as its bucket label, e.g. 9 -> "9-10".
func HourBucketLabel(hour int) string {
	return fmt.Sprintf("%d-%d", hour, hour+1)
}

// RecordCompletionTime increments the hour bucket for a completion instant.
func (p *UserPattern) RecordCompletionTime(at time.Time) {
	if p.PreferredTimes == nil {
		p.PreferredTimes = make(map[string]int)
	}
	p.PreferredTimes[HourBucket(at)]++
}

// RecordCategory adds one category observation.
func (p *UserPattern) RecordCategory(category string, completed bool) {
	if p.CategoryEfficiency == nil {
		p.CategoryEfficiency = make(map[string]*RateBucket)
	}
	b, ok := p.CategoryEfficiency[category]
	if !ok {
		b = &RateBucket{}
		p.CategoryEfficiency[category] = b
	}
	b.Record(completed)
}

// RecordComplexity adds one observation to the decile bucket nearest the
// given complexity score.
func (p *UserPattern) RecordComplexity(complexity float64, completed bool) {
	if p.ComplexityPreference == nil {
		p.ComplexityPreference = make(map[int]*RateBucket)
	}
	decile := ComplexityDecile(complexity)
	b, ok := p.ComplexityPreference[decile]
	if !ok {
		b = &RateBucket{}
		p.ComplexityPreference[decile] = b
	}
	b.Record(completed)
}

// ComplexityDecile rounds a complexity score to the nearest multiple of 10.
func ComplexityDecile(complexity float64) int {
	return int(complexity/10+0.5) * 10
}

// TimeEfficiency is the share of completions falling within the three
// most-populated hour buckets. Returns 0.5 when no data exists.
func (p *UserPattern) TimeEfficiency() float64 {
	if len(p.PreferredTimes) == 0 {
		return 0.5
	}

	counts := make([]int, 0, len(p.PreferredTimes))
	total := 0
	for _, c := range p.PreferredTimes {
		counts = append(counts, c)
		total += c
	}
	if total == 0 {
		return 0.5
	}

	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	top := 0
	for i := 0; i < len(counts) && i < 3; i++ {
		top += counts[i]
	}
	return float64(top) / float64(total)
}

// CategoryEfficiencyMean is the mean of all per-category completion rates.
// Returns 0.5 when no categories have been observed.
func (p *UserPattern) CategoryEfficiencyMean() float64 {
	if len(p.CategoryEfficiency) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, b := range p.CategoryEfficiency {
		sum += b.Rate
	}
	return sum / float64(len(p.CategoryEfficiency))
}

// UserProfile bundles the learned state persisted per user.
type UserProfile struct {
	Weights AdaptiveWeights `json:"weights"`
	Pattern *UserPattern    `json:"pattern"`
}

// NewUserProfile creates a profile with seed weights and an empty pattern.
func NewUserProfile() *UserProfile {
	return &UserProfile{
		Weights: DefaultWeights(),
		Pattern: NewUserPattern(),
	}
}
