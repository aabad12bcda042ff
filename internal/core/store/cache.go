package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetResource returns a cached payload if it has not expired.
func (s *Store) GetResource(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.DB == nil {
		return nil, false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("cache key is required")
	}

	var payload string
	row := s.DB.QueryRowContext(ctx, `
		SELECT payload
		FROM resource_cache
		WHERE key = ? AND expires_at > ?
	`, key, s.now().UnixMilli())

	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("fetch cached resource: %w", err)
	}
	return []byte(payload), true, nil
}

// SetResource stores payload under key for ttl. A non-positive ttl is a no-op.
func (s *Store) SetResource(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		return nil
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key is required")
	}

	now := s.now()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO resource_cache (key, payload, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at
	`, key, string(payload), now.UnixMilli(), now.Add(ttl).UnixMilli())
	if err != nil {
		return fmt.Errorf("store cached resource: %w", err)
	}
	return nil
}

// DeleteResource drops a cached entry.
func (s *Store) DeleteResource(ctx context.Context, key string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM resource_cache WHERE key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("delete cached resource: %w", err)
	}
	return nil
}

// PurgeExpired removes expired entries and returns how many were dropped.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM resource_cache WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge cached resources: %w", err)
	}
	return result.RowsAffected()
}
