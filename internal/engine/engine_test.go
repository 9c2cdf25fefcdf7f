// ABOUTME: Tests for the conversation engine facade
// ABOUTME: Covers session flow, failure mapping, stale-result discard, and concurrency

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai4business/advisor-bot/internal/assistant"
	"github.com/ai4business/advisor-bot/internal/config"
	"github.com/ai4business/advisor-bot/internal/remote"
	"github.com/ai4business/advisor-bot/internal/runs"
	"github.com/ai4business/advisor-bot/internal/session"
)

// fakeService simulates the remote assistant service: threads accumulate
// messages, runs complete immediately, and the assistant echoes the last
// user message.
type fakeService struct {
	mu          sync.Mutex
	threadSeq   int
	messages    map[string][]string // threadID -> user messages
	deleted     map[string]int
	remoteCalls atomic.Int32

	appendErr error
	runErr    error
}

func newFakeService() *fakeService {
	return &fakeService{
		messages: make(map[string][]string),
		deleted:  make(map[string]int),
	}
}

func (f *fakeService) CreateThread(ctx context.Context) (string, error) {
	f.remoteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadSeq++
	id := fmt.Sprintf("thread_%d", f.threadSeq)
	f.messages[id] = nil
	return id, nil
}

func (f *fakeService) AppendMessage(ctx context.Context, threadID, text string) error {
	f.remoteCalls.Add(1)
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[threadID] = append(f.messages[threadID], text)
	return nil
}

func (f *fakeService) CreateRun(ctx context.Context, threadID, assistantID string) (string, error) {
	f.remoteCalls.Add(1)
	if f.runErr != nil {
		return "", f.runErr
	}
	return "run_" + threadID, nil
}

func (f *fakeService) GetRunStatus(ctx context.Context, threadID, runID string) (remote.Status, error) {
	f.remoteCalls.Add(1)
	return remote.StatusCompleted, nil
}

func (f *fakeService) ListMessages(ctx context.Context, threadID string) ([]remote.Message, error) {
	f.remoteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[threadID]
	if len(msgs) == 0 {
		return nil, nil
	}
	last := msgs[len(msgs)-1]
	return []remote.Message{
		{Role: remote.RoleAssistant, Parts: []string{"echo: ", last}},
		{Role: remote.RoleUser, Parts: []string{last}},
	}, nil
}

func (f *fakeService) DeleteThread(ctx context.Context, threadID string) error {
	f.remoteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[threadID]++
	return nil
}

func testRegistry(t *testing.T) *assistant.Registry {
	t.Helper()
	r, err := assistant.NewRegistry([]config.AssistantConfig{
		{Key: "market", AssistantID: "asst_market", DisplayName: "Market Analysis"},
		{Key: "founder", AssistantID: "asst_founder", DisplayName: "Founder Ideas"},
	})
	require.NoError(t, err)
	return r
}

func newTestEngine(t *testing.T, svc remote.Client) *Engine {
	t.Helper()
	sessions := session.NewManager(svc, nil)
	poller := runs.NewPoller(svc, runs.Options{Interval: time.Millisecond, MaxAttempts: 5}, nil)
	return New(testRegistry(t), svc, poller, sessions, 4096, nil)
}

func TestSendMessage_FullFlow(t *testing.T) {
	svc := newFakeService()
	eng := newTestEngine(t, svc)
	ctx := context.Background()

	_, err := eng.StartSession(ctx, 42, "market")
	require.NoError(t, err)

	chunks, err := eng.SendMessage(ctx, 42, "size the market for me")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "echo: size the market for me", chunks[0])
}

func TestStartSession_UnknownVariant(t *testing.T) {
	svc := newFakeService()
	eng := newTestEngine(t, svc)

	_, err := eng.StartSession(context.Background(), 42, "astrology")
	assert.ErrorIs(t, err, ErrVariantUnavailable)
	assert.Zero(t, svc.remoteCalls.Load(), "unknown variant must not touch the remote service")
}

func TestSendMessage_NoSessionMakesZeroRemoteCalls(t *testing.T) {
	svc := newFakeService()
	eng := newTestEngine(t, svc)

	_, err := eng.SendMessage(context.Background(), 42, "hello?")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, svc.remoteCalls.Load())
}

func TestSendMessage_RemoteFailuresAbort(t *testing.T) {
	svc := newFakeService()
	eng := newTestEngine(t, svc)
	ctx := context.Background()

	_, err := eng.StartSession(ctx, 42, "market")
	require.NoError(t, err)

	svc.appendErr = &remote.Error{Op: "append message", Err: errors.New("boom")}
	_, err = eng.SendMessage(ctx, 42, "hi")
	assert.True(t, remote.IsRemote(err), "append failure surfaces as remote error: %v", err)

	svc.appendErr = nil
	svc.runErr = &remote.Error{Op: "create run", Err: errors.New("boom")}
	_, err = eng.SendMessage(ctx, 42, "hi again")
	assert.True(t, remote.IsRemote(err), "run creation failure surfaces as remote error: %v", err)
}

// terminalPoller returns a scripted outcome without touching the service.
type terminalPoller struct {
	outcome runs.Outcome
	before  func() // runs before returning, simulating work mid-poll
}

func (p *terminalPoller) Await(ctx context.Context, threadID, runID string) (runs.Outcome, error) {
	if p.before != nil {
		p.before()
	}
	return p.outcome, nil
}

func newScriptedEngine(t *testing.T, svc remote.Client, poller runAwaiter) (*Engine, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(svc, nil)
	return New(testRegistry(t), svc, poller, sessions, 4096, nil), sessions
}

func TestSendMessage_TerminalFailureMapping(t *testing.T) {
	for _, tc := range []struct {
		state runs.State
	}{
		{runs.StateFailed}, {runs.StateCancelled}, {runs.StateExpired},
	} {
		svc := newFakeService()
		eng, _ := newScriptedEngine(t, svc, &terminalPoller{outcome: runs.Outcome{State: tc.state}})
		ctx := context.Background()

		_, err := eng.StartSession(ctx, 42, "market")
		require.NoError(t, err)

		_, err = eng.SendMessage(ctx, 42, "hi")
		var rfe *RunFailedError
		require.ErrorAs(t, err, &rfe, "state %s", tc.state)
		assert.Equal(t, tc.state, rfe.State)
	}
}

func TestSendMessage_TimedOut(t *testing.T) {
	svc := newFakeService()
	eng, _ := newScriptedEngine(t, svc, &terminalPoller{outcome: runs.Outcome{State: runs.StateTimedOut}})
	ctx := context.Background()

	_, err := eng.StartSession(ctx, 42, "market")
	require.NoError(t, err)

	_, err = eng.SendMessage(ctx, 42, "hi")
	assert.ErrorIs(t, err, ErrRunTimedOut)
}

func TestSendMessage_EmptyReplyIsNotAnError(t *testing.T) {
	svc := newFakeService()
	eng, _ := newScriptedEngine(t, svc, &terminalPoller{outcome: runs.Outcome{State: runs.StateCompleted, Text: ""}})
	ctx := context.Background()

	_, err := eng.StartSession(ctx, 42, "market")
	require.NoError(t, err)

	chunks, err := eng.SendMessage(ctx, 42, "hi")
	require.NoError(t, err)
	assert.Empty(t, chunks, "caller decides fallback messaging for an empty reply")
}

func TestSendMessage_DiscardsResultWhenSessionReplacedMidPoll(t *testing.T) {
	svc := newFakeService()
	var eng *Engine
	poller := &terminalPoller{outcome: runs.Outcome{State: runs.StateCompleted, Text: "stale answer"}}
	eng, _ = newScriptedEngine(t, svc, poller)
	ctx := context.Background()

	_, err := eng.StartSession(ctx, 42, "market")
	require.NoError(t, err)

	// Replace the session while the poll is "in flight"
	poller.before = func() {
		_, err := eng.StartSession(ctx, 42, "founder")
		assert.NoError(t, err)
	}

	_, err = eng.SendMessage(ctx, 42, "hi")
	assert.ErrorIs(t, err, ErrSessionSuperseded)

	// The replacement session is intact
	key, err := eng.Status(42)
	require.NoError(t, err)
	assert.Equal(t, "founder", key)
}

func TestSendMessage_DiscardsResultWhenSessionEndedMidPoll(t *testing.T) {
	svc := newFakeService()
	var eng *Engine
	poller := &terminalPoller{outcome: runs.Outcome{State: runs.StateCompleted, Text: "stale answer"}}
	eng, _ = newScriptedEngine(t, svc, poller)
	ctx := context.Background()

	_, err := eng.StartSession(ctx, 42, "market")
	require.NoError(t, err)

	poller.before = func() {
		assert.NoError(t, eng.EndSession(ctx, 42))
	}

	_, err = eng.SendMessage(ctx, 42, "hi")
	assert.ErrorIs(t, err, ErrSessionSuperseded)
}

func TestStatus(t *testing.T) {
	svc := newFakeService()
	eng := newTestEngine(t, svc)
	ctx := context.Background()

	_, err := eng.Status(42)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = eng.StartSession(ctx, 42, "founder")
	require.NoError(t, err)

	key, err := eng.Status(42)
	require.NoError(t, err)
	assert.Equal(t, "founder", key)

	require.NoError(t, eng.EndSession(ctx, 42))
	_, err = eng.Status(42)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEngine_ConcurrentUsersDoNotCrossDeliver(t *testing.T) {
	svc := newFakeService()
	eng := newTestEngine(t, svc)
	ctx := context.Background()

	const users = 100
	const sends = 5

	var wg sync.WaitGroup
	errCh := make(chan error, users*(sends+1))
	for u := 1; u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			if _, err := eng.StartSession(ctx, userID, "market"); err != nil {
				errCh <- fmt.Errorf("user %d start: %w", userID, err)
				return
			}
			for i := 0; i < sends; i++ {
				marker := fmt.Sprintf("user %d message %d", userID, i)
				chunks, err := eng.SendMessage(ctx, userID, marker)
				if err != nil {
					errCh <- fmt.Errorf("user %d send %d: %w", userID, i, err)
					return
				}
				joined := strings.Join(chunks, "")
				if joined != "echo: "+marker {
					errCh <- fmt.Errorf("user %d got foreign reply %q", userID, joined)
					return
				}
			}
		}(int64(u))
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}

	// Each user still holds their own session afterwards
	for u := int64(1); u <= users; u++ {
		key, err := eng.Status(u)
		require.NoError(t, err)
		assert.Equal(t, "market", key)
	}
}
