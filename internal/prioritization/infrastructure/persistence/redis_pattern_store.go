package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/redis/go-redis/v9"
)

// RedisPatternStore persists profiles in Redis with TTL-based expiry.
// Keys are namespaced: momentum:pattern:{user_id}.
type RedisPatternStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPatternStore creates a Redis-backed store. A non-positive ttl
// stores profiles without expiration.
func NewRedisPatternStore(client *redis.Client, ttl time.Duration) *RedisPatternStore {
	return &RedisPatternStore{client: client, ttl: ttl}
}

func patternKey(userID string) string {
	return fmt.Sprintf("momentum:pattern:%s", userID)
}

// Get returns the stored profile for a user.
func (s *RedisPatternStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	raw, err := s.client.Get(ctx, patternKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get profile for %s: %w", userID, err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", userID, err)
	}
	return &profile, nil
}

// Put stores the profile, refreshing its TTL.
func (s *RedisPatternStore) Put(ctx context.Context, userID string, profile *domain.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", userID, err)
	}
	if err := s.client.Set(ctx, patternKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile for %s: %w", userID, err)
	}
	return nil
}
