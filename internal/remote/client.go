// ABOUTME: Client interface for the remote assistant execution service
// ABOUTME: Thin request/response operations over threads, messages, and runs

package remote

import (
	"context"
	"errors"
	"fmt"
)

// Status is a run execution status as reported by the remote service.
// The closed set below is the only one the engine interprets; any other
// value is treated as unknown by the poller so a contract drift can never
// cause infinite polling on a terminal run.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusExpired    Status = "expired"
)

// Message roles as used by the remote service.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation message with its text segments in order.
// Non-text segments are dropped at the client boundary.
type Message struct {
	Role  string
	Parts []string
}

// Client talks to the remote assistant service. It carries no retry logic;
// every operation either succeeds or fails with a *remote.Error for this
// one attempt. Writes are not idempotent: re-submitting AppendMessage
// duplicates content and re-submitting CreateRun starts a second run.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AppendMessage(ctx context.Context, threadID, text string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (string, error)
	GetRunStatus(ctx context.Context, threadID, runID string) (Status, error)

	// ListMessages returns the thread's messages newest first,
	// per the remote contract.
	ListMessages(ctx context.Context, threadID string) ([]Message, error)

	// DeleteThread releases a remote thread. Callers treat it as
	// best-effort cleanup; a failure never blocks the primary operation.
	DeleteThread(ctx context.Context, threadID string) error
}

// Error wraps any transport or API failure talking to the assistant service.
// Callers must not interpret it beyond "this attempt failed".
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRemote reports whether err is (or wraps) a remote service failure.
func IsRemote(err error) bool {
	var re *Error
	return errors.As(err, &re)
}

// AssistantReply extracts the assistant's latest reply from a newest-first
// message list: the first message with the assistant role, all of its text
// segments concatenated in their given order. The second return is false
// when no assistant message exists.
func AssistantReply(messages []Message) (string, bool) {
	for _, m := range messages {
		if m.Role != RoleAssistant {
			continue
		}
		var text string
		for _, part := range m.Parts {
			text += part
		}
		return text, true
	}
	return "", false
}
