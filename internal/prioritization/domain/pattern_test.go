package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateBucket(t *testing.T) {
	b := &RateBucket{}
	b.Record(true)
	b.Record(true)
	b.Record(false)

	assert.Equal(t, 3, b.Total)
	assert.Equal(t, 2, b.Completed)
	assert.InDelta(t, 2.0/3.0, b.Rate, 1e-9)
}

func TestHourBucket(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 45, 0, 0, time.UTC)
	assert.Equal(t, "9-10", HourBucket(at))
	assert.Equal(t, "0-1", HourBucketLabel(0))
	assert.Equal(t, "23-24", HourBucketLabel(23))
}

func TestComplexityDecile(t *testing.T) {
	cases := map[float64]int{
		0:    0,
		14:   10,
		15:   20,
		44:   40,
		45:   50,
		100:  100,
		67.3: 70,
	}
	for in, want := range cases {
		assert.Equal(t, want, ComplexityDecile(in), "complexity %v", in)
	}
}

func TestUserPatternTimeEfficiency(t *testing.T) {
	t.Run("no data yields neutral 0.5", func(t *testing.T) {
		assert.Equal(t, 0.5, NewUserPattern().TimeEfficiency())
	})

	t.Run("concentrated completions score high", func(t *testing.T) {
		p := NewUserPattern()
		morning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 8; i++ {
			p.RecordCompletionTime(morning)
		}
		p.RecordCompletionTime(morning.Add(8 * time.Hour))
		p.RecordCompletionTime(morning.Add(10 * time.Hour))

		// All three buckets are the top three: 10/10
		assert.InDelta(t, 1.0, p.TimeEfficiency(), 1e-9)
	})

	t.Run("scattered completions score lower", func(t *testing.T) {
		p := NewUserPattern()
		base := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
		for h := 0; h < 10; h++ {
			p.RecordCompletionTime(base.Add(time.Duration(h) * time.Hour))
		}
		assert.InDelta(t, 0.3, p.TimeEfficiency(), 1e-9)
	})
}

func TestUserPatternCategoryEfficiencyMean(t *testing.T) {
	p := NewUserPattern()
	assert.Equal(t, 0.5, p.CategoryEfficiencyMean())

	p.RecordCategory(CategoryWork, true)
	p.RecordCategory(CategoryWork, true)
	p.RecordCategory(CategoryPersonal, false)

	// Work rate 1.0, Personal rate 0.0
	assert.InDelta(t, 0.5, p.CategoryEfficiencyMean(), 1e-9)
}

func TestUserPatternRecordComplexity(t *testing.T) {
	p := NewUserPattern()
	p.RecordComplexity(67, true)
	p.RecordComplexity(72, false)

	b, ok := p.ComplexityPreference[70]
	require.True(t, ok)
	assert.Equal(t, 2, b.Total)
	assert.InDelta(t, 0.5, b.Rate, 1e-9)
}

func TestNewUserProfile(t *testing.T) {
	profile := NewUserProfile()
	assert.Equal(t, DefaultWeights(), profile.Weights)
	require.NotNil(t, profile.Pattern)
	assert.Empty(t, profile.Pattern.PreferredTimes)
}
