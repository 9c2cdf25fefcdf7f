// Package session owns the per-user binding of a user to one remote
// conversation thread and one assistant variant.
//
// # Ownership
//
// The Manager exclusively owns the user-to-session map; no other
// component touches it directly. The local Session is advisory — the
// remote service owns thread state and a thread can vanish on its own.
//
// # Serialization
//
// Each user gets a pair of locks. The mutate lock makes Start/End atomic,
// so a replaced thread is released exactly once and concurrent Start
// calls cannot orphan a thread. The send lock is handed to the engine to
// serialize message sends without letting a long poll block teardown;
// StillCurrent lets a finished poll detect that its session is gone.
package session
