package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nfarrow/appliancelink/internal/infrastructure/database"
)

// Store is a namespaced key/value cache backed by SQLite.
//
// Values are opaque strings (typically JSON). Writes are atomic upserts;
// a key is never observable in a partially-written state.
//
// Thread Safety: safe for concurrent use (serialised by the single-writer
// SQLite connection).
type Store struct {
	db *database.DB
}

// Entry is a single cache row.
type Entry struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewStore creates a cache store on an open database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the entry for a key.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - key: Full cache key including any version prefix
//
// Returns:
//   - *Entry: The entry, or nil with ErrNotFound if absent
//   - error: ErrNotFound if the key does not exist, otherwise a database error
func (s *Store) Get(ctx context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, fmt.Errorf("cache: key is required")
	}

	var (
		e                    Entry
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT key, value, created_at, updated_at FROM kv_cache WHERE key = ?",
		key,
	).Scan(&e.Key, &e.Value, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing cache entry created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing cache entry updated_at: %w", err)
	}

	return &e, nil
}

// Put writes a value for a key, creating or replacing it atomically.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - key: Full cache key including any version prefix
//   - value: Opaque value (typically JSON)
//
// Returns:
//   - error: nil on success, otherwise a database error
func (s *Store) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("cache: key is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_cache (key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, now, now)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("cache: key is required")
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}
