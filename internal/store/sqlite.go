// ABOUTME: SQLite implementation of user persistence using modernc.org/sqlite
// ABOUTME: Provides automatic schema creation and versioned idempotent migrations

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// UserStore persists users in SQLite.
type UserStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewUserStore opens (or creates) a SQLite user store at the given path.
// The schema is created and pending migrations applied automatically.
// Parent directories are created if needed.
func NewUserStore(path string) (*UserStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &UserStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if _, err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("user store initialized", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *UserStore) Close() error {
	return s.db.Close()
}

// createSchema creates the base tables if they don't exist
func (s *UserStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id INTEGER PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			last_name TEXT,
			status TEXT NOT NULL DEFAULT 'new',
			registered_at DATETIME,
			last_activity DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_users_status
			ON users(status);

		CREATE INDEX IF NOT EXISTS idx_users_last_activity
			ON users(last_activity);

		CREATE TABLE IF NOT EXISTS migration_history (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL,
			success INTEGER NOT NULL DEFAULT 1
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// UpsertContact records a user contact, updating profile fields and the
// activity timestamp without touching status or registration on conflict.
func (s *UserStore) UpsertContact(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, status, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_activity = excluded.last_activity`,
		u.TelegramID, u.Username, u.FirstName, u.LastName, StatusNew, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting user %d: %w", u.TelegramID, err)
	}
	return nil
}

// Get returns the user with the given telegram id, or ErrNotFound.
func (s *UserStore) Get(ctx context.Context, telegramID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT telegram_id, username, first_name, last_name, status, registered_at, last_activity
		FROM users WHERE telegram_id = ?`, telegramID)
	return scanUser(row)
}

// Register promotes the user to registered status, stamping registered_at.
func (s *UserStore) Register(ctx context.Context, telegramID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET status = ?, registered_at = ?
		WHERE telegram_id = ?`,
		StatusRegistered, time.Now().UTC(), telegramID)
	if err != nil {
		return fmt.Errorf("registering user %d: %w", telegramID, err)
	}
	return requireAffected(res)
}

// SetStatus updates the user's status.
func (s *UserStore) SetStatus(ctx context.Context, telegramID int64, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET status = ? WHERE telegram_id = ?`, status, telegramID)
	if err != nil {
		return fmt.Errorf("updating status for user %d: %w", telegramID, err)
	}
	return requireAffected(res)
}

// Touch bumps the user's last activity timestamp.
func (s *UserStore) Touch(ctx context.Context, telegramID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET last_activity = ? WHERE telegram_id = ?`,
		time.Now().UTC(), telegramID)
	if err != nil {
		return fmt.Errorf("touching user %d: %w", telegramID, err)
	}
	return requireAffected(res)
}

// List returns users, optionally filtered by status, most recently active first.
func (s *UserStore) List(ctx context.Context, status string) ([]*User, error) {
	query := `
		SELECT telegram_id, username, first_name, last_name, status, registered_at, last_activity
		FROM users`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY last_activity DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// Inactive returns users whose last activity is older than the given number of days.
func (s *UserStore) Inactive(ctx context.Context, days int) ([]*User, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.db.QueryContext(ctx, `
		SELECT telegram_id, username, first_name, last_name, status, registered_at, last_activity
		FROM users WHERE last_activity < ?
		ORDER BY last_activity ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("listing inactive users: %w", err)
	}
	defer rows.Close()
	return scanUsers(rows)
}

// Delete removes a user.
func (s *UserStore) Delete(ctx context.Context, telegramID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", telegramID, err)
	}
	return requireAffected(res)
}

// GetStats summarizes the user table.
func (s *UserStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM users GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting users by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = n
		stats.Total += n
		if status == StatusRegistered || status == StatusPremium {
			stats.Registered += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE last_activity >= ?`, weekAgo)
	if err := row.Scan(&stats.ActiveWeek); err != nil {
		return nil, err
	}

	return stats, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var registeredAt sql.NullTime
	var username, firstName, lastName sql.NullString
	err := row.Scan(&u.TelegramID, &username, &firstName, &lastName, &u.Status, &registeredAt, &u.LastActivity)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	if registeredAt.Valid {
		t := registeredAt.Time
		u.RegisteredAt = &t
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*User, error) {
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
