// Package telegram is the user-facing transport.
//
// It maps bot commands and plain text onto the engine's operations,
// renders the advisor keyboard, and phrases structured engine outcomes as
// user prose — the engine itself never formats end-user text. Every
// update passes a guard that suppresses redelivered updates, records the
// user's contact info, and gates blocked and unregistered users before
// any handler runs.
package telegram
