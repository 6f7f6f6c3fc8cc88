package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "memory", cfg.PatternStoreBackend)
		assert.Equal(t, 30*24*time.Hour, cfg.PatternTTL)
		assert.Equal(t, 8, cfg.ScoringConcurrency)
		assert.False(t, cfg.RankerEnabled)
		assert.True(t, cfg.IsDevelopment())
		assert.False(t, cfg.IsProduction())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MOMENTUM_ENV", "production")
		t.Setenv("MOMENTUM_PATTERN_STORE", "redis")
		t.Setenv("MOMENTUM_RANKER_ENABLED", "true")
		t.Setenv("MOMENTUM_RANKER_TIMEOUT", "3s")
		t.Setenv("MOMENTUM_SCORING_CONCURRENCY", "4")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.IsProduction())
		assert.Equal(t, "redis", cfg.PatternStoreBackend)
		assert.True(t, cfg.RankerEnabled)
		assert.Equal(t, 3*time.Second, cfg.RankerTimeout)
		assert.Equal(t, 4, cfg.ScoringConcurrency)
	})

	t.Run("bad values keep defaults", func(t *testing.T) {
		t.Setenv("MOMENTUM_SCORING_CONCURRENCY", "many")
		t.Setenv("MOMENTUM_RANKER_TIMEOUT", "soon")
		t.Setenv("MOMENTUM_RANKER_ENABLED", "yep")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8, cfg.ScoringConcurrency)
		assert.Equal(t, 10*time.Second, cfg.RankerTimeout)
		assert.False(t, cfg.RankerEnabled)
	})
}

func TestConfigLocation(t *testing.T) {
	t.Run("named zone", func(t *testing.T) {
		cfg := &Config{Timezone: "Europe/Berlin"}
		assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	})

	t.Run("local fallbacks", func(t *testing.T) {
		for _, tz := range []string{"", "Local", "Mars/Olympus"} {
			cfg := &Config{Timezone: tz}
			assert.Equal(t, time.Local, cfg.Location(), "timezone %q", tz)
		}
	})
}
