// Package engine composes the assistant registry, remote client, run
// poller, session manager, and response chunker into the operations the
// transport layer calls: StartSession, SendMessage, EndSession, Status.
//
// # Serialization
//
// Operations for one user serialize; operations across users are fully
// independent. Session mutations take the user's mutate lock, message
// sends take the user's send lock for the whole append-run-await span.
// There are no global locks.
//
// # Stale results
//
// EndSession and StartSession never wait for an outstanding run. When a
// poll finishes after its session was replaced or ended, the result is
// discarded and SendMessage returns ErrSessionSuperseded. The session id
// comparison in the manager makes this exact: a new session for the same
// user and variant still supersedes the old one.
//
// # Error taxonomy
//
// ErrNoSession, ErrVariantUnavailable, ErrRunTimedOut, and
// ErrSessionSuperseded are sentinel values; terminal run failures carry
// the state in RunFailedError; anything from the remote service wraps as
// a remote.Error. The engine reports, the transport phrases.
package engine
