// ABOUTME: Versioned schema migrations for the user store
// ABOUTME: Each migration carries a check query so reruns are safe no-ops

package store

import (
	"context"
	"fmt"
	"time"
)

// migration is a single schema change. The check query must return a row
// when the migration has already been applied; SQLite has no ADD COLUMN
// IF NOT EXISTS so we probe pragma_table_info first.
type migration struct {
	version     string
	description string
	check       string
	apply       string
}

var migrations = []migration{
	{
		version:     "001",
		description: "add status column to users",
		check:       `SELECT 1 FROM pragma_table_info('users') WHERE name = 'status'`,
		apply:       `ALTER TABLE users ADD COLUMN status TEXT NOT NULL DEFAULT 'new'`,
	},
	{
		version:     "002",
		description: "add registered_at column to users",
		check:       `SELECT 1 FROM pragma_table_info('users') WHERE name = 'registered_at'`,
		apply:       `ALTER TABLE users ADD COLUMN registered_at DATETIME`,
	},
	{
		version:     "003",
		description: "add status index on users",
		check:       `SELECT 1 FROM sqlite_master WHERE type = 'index' AND name = 'idx_users_status'`,
		apply:       `CREATE INDEX idx_users_status ON users(status)`,
	},
}

// ApplyMigrations runs all pending migrations and returns how many were applied.
func (s *UserStore) ApplyMigrations(ctx context.Context) (int, error) {
	applied := 0
	for _, m := range migrations {
		done, err := s.migrationRecorded(ctx, m.version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		var exists int
		if err := s.db.QueryRowContext(ctx, m.check).Scan(&exists); err == nil {
			// Schema change already present (fresh database), just record it
			if err := s.recordMigration(ctx, m); err != nil {
				return applied, err
			}
			continue
		}

		if _, err := s.db.ExecContext(ctx, m.apply); err != nil {
			return applied, fmt.Errorf("applying migration %s (%s): %w", m.version, m.description, err)
		}
		if err := s.recordMigration(ctx, m); err != nil {
			return applied, err
		}
		s.logger.Info("applied migration", "version", m.version, "description", m.description)
		applied++
	}
	return applied, nil
}

// CurrentVersion returns the highest recorded migration version, or "" when
// no migration has been applied yet.
func (s *UserStore) CurrentVersion(ctx context.Context) (string, error) {
	var version string
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), '') FROM migration_history WHERE success = 1`)
	if err := row.Scan(&version); err != nil {
		return "", fmt.Errorf("reading migration version: %w", err)
	}
	return version, nil
}

func (s *UserStore) migrationRecorded(ctx context.Context, version string) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM migration_history WHERE version = ? AND success = 1`, version)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("checking migration %s: %w", version, err)
	}
	return n > 0, nil
}

func (s *UserStore) recordMigration(ctx context.Context, m migration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO migration_history (version, description, applied_at, success)
		VALUES (?, ?, ?, 1)`,
		m.version, m.description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording migration %s: %w", m.version, err)
	}
	return nil
}
