// Package store provides persistent user storage for the bot using SQLite.
//
// # Data Model
//
// A single users table keyed by Telegram id. Each user carries a lifecycle
// status (new, user, registered, premium, blocked), an optional registration
// timestamp, and a last-activity timestamp that every interaction refreshes.
//
// # Migrations
//
// Schema migrations are versioned and recorded in a migration_history table.
// Each migration carries a probe query so rerunning against an already
// migrated database is a no-op; fresh databases get the full schema up front
// and migrations are recorded without being applied.
//
// # Implementation
//
// UserStore uses modernc.org/sqlite (pure Go, no CGo) with WAL journaling.
package store
