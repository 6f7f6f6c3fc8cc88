package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLitePatternStore persists profiles in a local SQLite database. Used in
// single-user local mode.
type SQLitePatternStore struct {
	db *sql.DB
}

// OpenSQLitePatternStore opens (and migrates) a SQLite-backed store at the
// given path.
func OpenSQLitePatternStore(path string) (*SQLitePatternStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}

	store := &SQLitePatternStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLitePatternStore wraps an existing connection (tests).
func NewSQLitePatternStore(db *sql.DB) (*SQLitePatternStore, error) {
	store := &SQLitePatternStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLitePatternStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS user_patterns (
			user_id    TEXT PRIMARY KEY,
			profile    TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate user_patterns: %w", err)
	}
	return nil
}

// Get returns the stored profile for a user.
func (s *SQLitePatternStore) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM user_patterns WHERE user_id = ?`, userID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get profile for %s: %w", userID, err)
	}

	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", userID, err)
	}
	return &profile, nil
}

// Put upserts the profile for a user.
func (s *SQLitePatternStore) Put(ctx context.Context, userID string, profile *domain.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", userID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_patterns (user_id, profile, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			profile = excluded.profile,
			updated_at = excluded.updated_at
	`, userID, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite put profile for %s: %w", userID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLitePatternStore) Close() error {
	return s.db.Close()
}
