package domain

import (
	"context"
	"errors"
)

// ErrProfileNotFound indicates no learned state exists for a user yet.
var ErrProfileNotFound = errors.New("user profile not found")

// PatternStore persists learned per-user state. Implementations must be safe
// for concurrent use; the weight model serializes read-modify-write cycles
// per user above this interface.
type PatternStore interface {
	// Get returns the profile for a user, or ErrProfileNotFound.
	Get(ctx context.Context, userID string) (*UserProfile, error)

	// Put stores the profile for a user, replacing any existing one.
	Put(ctx context.Context, userID string, profile *UserProfile) error
}
