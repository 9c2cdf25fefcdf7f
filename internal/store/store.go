// ABOUTME: Store types and errors for advisor-bot user persistence
// ABOUTME: Defines the User record and status lifecycle constants

package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// User status lifecycle. A user starts as "new" on first contact and moves
// to "registered" after completing registration. "blocked" users are
// refused by the transport layer; the conversation core never sees them.
const (
	StatusNew        = "new"
	StatusUser       = "user"
	StatusRegistered = "registered"
	StatusPremium    = "premium"
	StatusBlocked    = "blocked"
)

// User represents a known Telegram user
type User struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	Status       string
	RegisteredAt *time.Time
	LastActivity time.Time
}

// DisplayName returns the best human-readable name available.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return fmt.Sprintf("user %d", u.TelegramID)
	}
}

// IsRegistered reports whether the user completed registration.
func (u *User) IsRegistered() bool {
	return u.Status == StatusRegistered || u.Status == StatusPremium
}

// Stats summarizes the user table for the admin CLI.
type Stats struct {
	Total      int
	ByStatus   map[string]int
	Registered int
	ActiveWeek int
}
