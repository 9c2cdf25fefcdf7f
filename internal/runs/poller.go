// ABOUTME: Bounded polling state machine for remote assistant runs
// ABOUTME: Classifies terminal states and extracts the assistant's reply text

package runs

import (
	"context"
	"log/slog"
	"time"

	"github.com/ai4business/advisor-bot/internal/remote"
)

// State is the terminal classification of an awaited run.
type State string

const (
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
	StateTimedOut  State = "timed_out"
)

// Outcome is the terminal result of awaiting a run. Text is only meaningful
// for StateCompleted and may be empty when the run finished without an
// assistant reply; the caller decides fallback messaging for that case.
type Outcome struct {
	State State
	Text  string
}

// Options bound the polling loop. Both values must be positive.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

// Poller awaits run completion by querying status at a fixed interval up to
// a maximum attempt count. It never retries a terminal run; retry, if any,
// is a caller decision.
type Poller struct {
	client   remote.Client
	interval time.Duration
	attempts int
	logger   *slog.Logger
}

// NewPoller creates a poller over the given client.
func NewPoller(client remote.Client, opts Options, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 30
	}
	return &Poller{
		client:   client,
		interval: interval,
		attempts: attempts,
		logger:   logger.With("component", "poller"),
	}
}

// Await polls the run until it reaches a terminal state or the attempt
// budget is exhausted. Each attempt waits one interval, then queries status:
//
//   - completed: fetch messages and extract the assistant reply
//   - failed, cancelled, expired: the corresponding terminal state
//   - queued, in_progress, or anything unrecognized: consume the attempt
//
// A remote failure on any query aborts with that error. Context cancellation
// aborts the wait with ctx.Err().
func (p *Poller) Await(ctx context.Context, threadID, runID string) (Outcome, error) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.attempts; attempt++ {
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		}

		status, err := p.client.GetRunStatus(ctx, threadID, runID)
		if err != nil {
			return Outcome{}, err
		}

		switch status {
		case remote.StatusCompleted:
			text, err := p.assistantReply(ctx, threadID)
			if err != nil {
				return Outcome{}, err
			}
			p.logger.Debug("run completed",
				"thread_id", threadID,
				"run_id", runID,
				"attempts", attempt)
			return Outcome{State: StateCompleted, Text: text}, nil

		case remote.StatusFailed, remote.StatusCancelled, remote.StatusExpired:
			p.logger.Warn("run reached terminal failure",
				"thread_id", threadID,
				"run_id", runID,
				"status", string(status))
			return Outcome{State: State(status)}, nil

		case remote.StatusQueued, remote.StatusInProgress:
			// Still running, wait another interval

		default:
			// Unknown status: keep polling, the attempt budget bounds us
			p.logger.Debug("unrecognized run status",
				"thread_id", threadID,
				"run_id", runID,
				"status", string(status))
		}

		timer.Reset(p.interval)
	}

	p.logger.Warn("run polling exhausted attempt budget",
		"thread_id", threadID,
		"run_id", runID,
		"attempts", p.attempts)
	return Outcome{State: StateTimedOut}, nil
}

// assistantReply fetches the thread's messages and extracts the latest
// assistant reply. A completed run with no assistant message yields an
// empty reply, not an error.
func (p *Poller) assistantReply(ctx context.Context, threadID string) (string, error) {
	messages, err := p.client.ListMessages(ctx, threadID)
	if err != nil {
		return "", err
	}
	text, ok := remote.AssistantReply(messages)
	if !ok {
		p.logger.Warn("completed run produced no assistant message", "thread_id", threadID)
		return "", nil
	}
	return text, nil
}
