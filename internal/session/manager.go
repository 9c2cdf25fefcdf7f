// ABOUTME: Per-user session lifecycle binding a user to one remote thread and variant
// ABOUTME: Owns the user-to-session map behind per-user serialization, never global locks

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoSession is returned when an operation requires an active session
// that does not exist.
var ErrNoSession = errors.New("no active session")

// Session binds a user to exactly one (variant, thread) pair. The local
// Session is only an advisory cache: the remote service owns thread state
// and the thread can vanish independently.
type Session struct {
	ID         string
	UserID     int64
	VariantKey string
	ThreadID   string
	StartedAt  time.Time
}

// ThreadClient is the slice of the remote client the manager needs.
type ThreadClient interface {
	CreateThread(ctx context.Context) (string, error)
	DeleteThread(ctx context.Context, threadID string) error
}

// userLocks serializes operations for one user. The mutate lock makes
// start/end replacement atomic; the separate send lock serializes message
// sends without letting a long-running poll block session teardown.
type userLocks struct {
	mutate sync.Mutex
	send   sync.Mutex
}

// Manager owns the user-to-session mapping and enforces at most one active
// session per user. All mutation goes through its serialized interface.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*userLocks

	threads ThreadClient
	logger  *slog.Logger
}

// NewManager creates a session manager over the given thread client.
func NewManager(threads ThreadClient, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*userLocks),
		threads:  threads,
		logger:   logger.With("component", "session"),
	}
}

// userLocksFor returns the lock pair for a user, creating it on first use.
func (m *Manager) userLocksFor(userID int64) *userLocks {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLocks{}
		m.locks[userID] = l
	}
	return l
}

// Start begins a new session for the user, replacing any existing one.
// Replacement is replace-not-merge: the prior thread is released with a
// single best-effort delete before the new thread is created, and its
// conversation context is permanently discarded. Concurrent Start calls for
// the same user serialize on the per-user mutation lock, so a replaced
// thread is deleted exactly once and no thread is orphaned.
func (m *Manager) Start(ctx context.Context, userID int64, variantKey string) (*Session, error) {
	locks := m.userLocksFor(userID)
	locks.mutate.Lock()
	defer locks.mutate.Unlock()

	m.mu.Lock()
	prior := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if prior != nil {
		m.releaseThread(ctx, prior)
	}

	threadID, err := m.threads.CreateThread(ctx)
	if err != nil {
		// The prior session is already gone; the user recovers with a
		// fresh Start rather than being left pointing at a dead thread.
		return nil, err
	}

	sess := &Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		VariantKey: variantKey,
		ThreadID:   threadID,
		StartedAt:  time.Now(),
	}

	m.mu.Lock()
	m.sessions[userID] = sess
	m.mu.Unlock()

	m.logger.Info("session started",
		"user_id", userID,
		"variant", variantKey,
		"thread_id", threadID)
	return sess, nil
}

// Active returns the user's current session, or ErrNoSession.
func (m *Manager) Active(userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// End terminates the user's session, clearing local state and releasing the
// remote thread best-effort. An outstanding poll is not stopped; it notices
// on completion that its session is gone and discards its result.
func (m *Manager) End(ctx context.Context, userID int64) error {
	locks := m.userLocksFor(userID)
	locks.mutate.Lock()
	defer locks.mutate.Unlock()

	m.mu.Lock()
	sess, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return ErrNoSession
	}

	m.releaseThread(ctx, sess)
	m.logger.Info("session ended", "user_id", userID, "thread_id", sess.ThreadID)
	return nil
}

// StillCurrent reports whether the given session is still the user's active
// one. Callers use it to discard results from polls that outlived their
// session.
func (m *Manager) StillCurrent(sess *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sessions[sess.UserID]
	return ok && current.ID == sess.ID
}

// SendLock returns the mutex serializing message sends for the user. The
// caller holds it across append/run/poll so two runs never race on one
// thread, while session mutations stay free to proceed.
func (m *Manager) SendLock(userID int64) *sync.Mutex {
	return &m.userLocksFor(userID).send
}

// releaseThread deletes a remote thread best-effort. Cleanup failure is
// logged, never surfaced: deletion is not part of the conversation's
// observable contract.
func (m *Manager) releaseThread(ctx context.Context, sess *Session) {
	if err := m.threads.DeleteThread(ctx, sess.ThreadID); err != nil {
		m.logger.Warn("failed to release thread",
			"user_id", sess.UserID,
			"thread_id", sess.ThreadID,
			"error", err)
	}
}
