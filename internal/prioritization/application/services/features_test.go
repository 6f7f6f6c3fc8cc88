package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMinutes(t *testing.T) {
	e := NewFeatureExtractor()

	t.Run("explicit estimate wins", func(t *testing.T) {
		task := textTask("quick project for the day", "")
		task.EstimatedMinutes = 45
		assert.Equal(t, 45, e.EstimateMinutes(task))
	})

	tests := []struct {
		name  string
		title string
		want  int
	}{
		{"quick keyword", "quick sync", 15},
		{"minute keyword", "5 minute stretch", 15},
		{"hour keyword", "one hour of reading", 60},
		{"day keyword", "day of deep work", 240},
		{"project keyword", "side project setup", 240},
		{"default", "write notes", 30},
		{"quick beats hour", "quick hour check", 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.EstimateMinutes(textTask(tt.title, "")))
		})
	}
}

func TestComplexity(t *testing.T) {
	e := NewFeatureExtractor()
	d := NewKeywordSignalDetector()

	extract := func(title string) TaskFeatures {
		task := textTask(title, "")
		return e.Extract(task, d.Detect(task))
	}

	t.Run("neutral text scores 50", func(t *testing.T) {
		f := extract("water the plants")
		assert.Equal(t, 50.0, f.Complexity)
	})

	t.Run("complex families raise the score", func(t *testing.T) {
		// "research" family +10, "design" family +10, effort-complex +15,
		// duration stays at the default 30.
		f := extract("research the api surface and note a rough plan")
		assert.Greater(t, f.Complexity, 50.0)
	})

	t.Run("simple families and short duration lower the score", func(t *testing.T) {
		// "call" -8, "quick" duration 15 -> -15, effort-quick -20
		f := extract("quick call with mum")
		assert.Equal(t, 10.0, f.Complexity, "clamped at the floor")
	})

	t.Run("long estimates raise the score", func(t *testing.T) {
		task := textTask("watch lecture recordings", "")
		task.EstimatedMinutes = 180
		f := e.Extract(task, d.Detect(task))
		assert.Equal(t, 70.0, f.Complexity)
	})

	t.Run("score clamps at 100", func(t *testing.T) {
		task := textTask("research design implement analyze write the thesis", "")
		task.EstimatedMinutes = 300
		f := e.Extract(task, d.Detect(task))
		assert.Equal(t, 100.0, f.Complexity)
	})
}
