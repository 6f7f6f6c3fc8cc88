// Package persistence provides pattern-store backends for learned per-user
// state. The in-memory backend is bounded by TTL eviction; the Redis,
// SQLite, and Postgres backends survive restarts.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryPatternStore keeps profiles in process memory with TTL-based
// eviction, so idle users do not accumulate unbounded state.
type MemoryPatternStore struct {
	cache *gocache.Cache
}

// NewMemoryPatternStore creates a store whose entries expire after ttl of
// inactivity. A non-positive ttl disables expiration (tests only).
func NewMemoryPatternStore(ttl time.Duration) *MemoryPatternStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryPatternStore{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// Get returns the stored profile. Profiles are stored as JSON so callers
// always receive an independent copy.
func (s *MemoryPatternStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	raw, found := s.cache.Get(userID)
	if !found {
		return nil, domain.ErrProfileNotFound
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(raw.([]byte), &profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", userID, err)
	}
	return &profile, nil
}

// Put stores the profile and refreshes its TTL.
func (s *MemoryPatternStore) Put(ctx context.Context, userID string, profile *domain.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", userID, err)
	}
	s.cache.SetDefault(userID, raw)
	return nil
}
