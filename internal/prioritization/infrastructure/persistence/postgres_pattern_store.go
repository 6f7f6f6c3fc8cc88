package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPatternStore persists profiles in PostgreSQL. Used in service
// mode where multiple instances share learned state.
type PostgresPatternStore struct {
	pool *pgxpool.Pool
}

// NewPostgresPatternStore creates a store over an existing pool.
func NewPostgresPatternStore(pool *pgxpool.Pool) *PostgresPatternStore {
	return &PostgresPatternStore{pool: pool}
}

// Migrate creates the backing table if it does not exist.
func (s *PostgresPatternStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_patterns (
			user_id    TEXT PRIMARY KEY,
			profile    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate user_patterns: %w", err)
	}
	return nil
}

// Get returns the stored profile for a user.
func (s *PostgresPatternStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM user_patterns WHERE user_id = $1`, userID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get profile for %s: %w", userID, err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", userID, err)
	}
	return &profile, nil
}

// Put upserts the profile for a user.
func (s *PostgresPatternStore) Put(ctx context.Context, userID string, profile *domain.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", userID, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_patterns (user_id, profile, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			updated_at = EXCLUDED.updated_at
	`, userID, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres put profile for %s: %w", userID, err)
	}
	return nil
}
