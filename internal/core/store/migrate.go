package store

import (
	"context"
	"errors"
	"fmt"
)

// migrations are applied in order; index+1 is the schema version recorded in
// PRAGMA user_version once the step succeeds.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS resource_cache (
			key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			cached_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_resource_cache_expires ON resource_cache(expires_at);`,
	},
}

// SchemaVersion is the version Migrate brings the database to.
var SchemaVersion = len(migrations)

// Migrate applies pending schema steps. Re-running it on a current database
// is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var current int
	if err := s.DB.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		for _, stmt := range migrations[version-1] {
			if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("store migration %d failed: %w", version, err)
			}
		}
		// PRAGMA does not accept bound parameters.
		if _, err := s.DB.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, version)); err != nil {
			return fmt.Errorf("record schema version %d: %w", version, err)
		}
	}
	return nil
}
