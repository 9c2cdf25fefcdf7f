// ABOUTME: Conversation facade composing sessions, runs, and chunking
// ABOUTME: The three operations the transport layer calls, plus a status query

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ai4business/advisor-bot/internal/assistant"
	"github.com/ai4business/advisor-bot/internal/chunk"
	"github.com/ai4business/advisor-bot/internal/remote"
	"github.com/ai4business/advisor-bot/internal/runs"
	"github.com/ai4business/advisor-bot/internal/session"
)

// ErrNoSession is returned when an operation requires an active session.
var ErrNoSession = session.ErrNoSession

// ErrVariantUnavailable is returned for a variant key the registry does
// not know.
var ErrVariantUnavailable = errors.New("assistant variant unavailable")

// ErrSessionSuperseded is returned when a run finished after its session
// was replaced or ended; the result is discarded, not delivered.
var ErrSessionSuperseded = errors.New("session superseded during run")

// ErrRunTimedOut is returned when the poller exhausted its attempt budget.
var ErrRunTimedOut = errors.New("run timed out")

// RunFailedError reports a run that reached a terminal failure state.
type RunFailedError struct {
	State runs.State
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("run reached terminal state %s", e.State)
}

// runAwaiter is the slice of the poller the engine needs.
type runAwaiter interface {
	Await(ctx context.Context, threadID, runID string) (runs.Outcome, error)
}

// Engine composes the registry, remote client, poller, session manager, and
// chunker into the conversation operations. It is safe for concurrent use;
// operations for different users proceed independently while per-user
// serialization comes from the session manager's locks.
type Engine struct {
	registry    *assistant.Registry
	client      remote.Client
	poller      runAwaiter
	sessions    *session.Manager
	maxChunkLen int
	logger      *slog.Logger
}

// New creates an engine. maxChunkLen bounds outbound chunk sizes in code
// points; zero selects the transport default.
func New(registry *assistant.Registry, client remote.Client, poller runAwaiter, sessions *session.Manager, maxChunkLen int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxChunkLen <= 0 {
		maxChunkLen = chunk.DefaultMaxLen
	}
	return &Engine{
		registry:    registry,
		client:      client,
		poller:      poller,
		sessions:    sessions,
		maxChunkLen: maxChunkLen,
		logger:      logger.With("component", "engine"),
	}
}

// StartSession binds the user to the given assistant variant, replacing any
// existing session.
func (e *Engine) StartSession(ctx context.Context, userID int64, variantKey string) (*session.Session, error) {
	if _, ok := e.registry.Resolve(variantKey); !ok {
		return nil, ErrVariantUnavailable
	}
	return e.sessions.Start(ctx, userID, variantKey)
}

// SendMessage appends the user's text to their session thread, runs the
// assistant, awaits completion, and returns the reply as ordered
// transport-safe chunks. An empty chunk slice with a nil error means the
// run completed without reply text; the transport decides fallback
// messaging.
//
// With no active session it returns ErrNoSession having made zero remote
// calls. Sends for one user serialize so two runs never race one thread.
func (e *Engine) SendMessage(ctx context.Context, userID int64, text string) ([]string, error) {
	sendMu := e.sessions.SendLock(userID)
	sendMu.Lock()
	defer sendMu.Unlock()

	sess, err := e.sessions.Active(userID)
	if err != nil {
		return nil, err
	}

	variant, ok := e.registry.Resolve(sess.VariantKey)
	if !ok {
		return nil, ErrVariantUnavailable
	}

	if err := e.client.AppendMessage(ctx, sess.ThreadID, text); err != nil {
		return nil, err
	}

	// No retry on failure past this point: the message is durably stored
	// server-side, and the next run picks it up as thread history.
	runID, err := e.client.CreateRun(ctx, sess.ThreadID, variant.RemoteID)
	if err != nil {
		return nil, err
	}

	outcome, err := e.poller.Await(ctx, sess.ThreadID, runID)

	// The session may have been replaced or ended while the poll was in
	// flight; a stale result is discarded regardless of what it was.
	if !e.sessions.StillCurrent(sess) {
		e.logger.Debug("discarding result for superseded session",
			"user_id", userID,
			"session_id", sess.ID)
		return nil, ErrSessionSuperseded
	}
	if err != nil {
		return nil, err
	}

	switch outcome.State {
	case runs.StateCompleted:
		return chunk.Split(outcome.Text, e.maxChunkLen), nil
	case runs.StateTimedOut:
		return nil, ErrRunTimedOut
	default:
		return nil, &RunFailedError{State: outcome.State}
	}
}

// EndSession terminates the user's session. Returns ErrNoSession when there
// is none.
func (e *Engine) EndSession(ctx context.Context, userID int64) error {
	return e.sessions.End(ctx, userID)
}

// Status returns the variant key of the user's active session, or
// ErrNoSession.
func (e *Engine) Status(userID int64) (string, error) {
	sess, err := e.sessions.Active(userID)
	if err != nil {
		return "", err
	}
	return sess.VariantKey, nil
}
