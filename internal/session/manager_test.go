// ABOUTME: Tests for the session manager
// ABOUTME: Verifies replace semantics, cleanup accounting, and concurrent starts

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeThreads counts creates and deletes, optionally failing either.
type fakeThreads struct {
	mu        sync.Mutex
	created   int
	deleted   map[string]int
	createErr error
	deleteErr error
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{deleted: make(map[string]int)}
}

func (f *fakeThreads) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	return fmt.Sprintf("thread_%d", f.created), nil
}

func (f *fakeThreads) DeleteThread(ctx context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[threadID]++
	return f.deleteErr
}

func (f *fakeThreads) deleteCount(threadID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted[threadID]
}

func TestStart_CreatesSession(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)

	sess, err := m.Start(context.Background(), 42, "market")
	require.NoError(t, err)
	assert.Equal(t, int64(42), sess.UserID)
	assert.Equal(t, "market", sess.VariantKey)
	assert.Equal(t, "thread_1", sess.ThreadID)
	assert.NotEmpty(t, sess.ID)

	active, err := m.Active(42)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, active.ID)
}

func TestStart_ReplacesAndDeletesPriorThreadOnce(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)
	ctx := context.Background()

	first, err := m.Start(ctx, 42, "market")
	require.NoError(t, err)
	second, err := m.Start(ctx, 42, "founder")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, threads.deleteCount(first.ThreadID))
	assert.Equal(t, 0, threads.deleteCount(second.ThreadID))

	active, err := m.Active(42)
	require.NoError(t, err)
	assert.Equal(t, "founder", active.VariantKey)
}

func TestStart_DeleteFailureIsSwallowed(t *testing.T) {
	threads := newFakeThreads()
	threads.deleteErr = errors.New("remote gone")
	m := NewManager(threads, nil)
	ctx := context.Background()

	_, err := m.Start(ctx, 42, "market")
	require.NoError(t, err)
	sess, err := m.Start(ctx, 42, "founder")
	require.NoError(t, err, "cleanup failure must not fail the replacement")
	assert.Equal(t, "thread_2", sess.ThreadID)
}

func TestStart_CreateFailureLeavesNoSession(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)
	ctx := context.Background()

	_, err := m.Start(ctx, 42, "market")
	require.NoError(t, err)

	threads.mu.Lock()
	threads.createErr = errors.New("service down")
	threads.mu.Unlock()

	_, err = m.Start(ctx, 42, "founder")
	require.Error(t, err)

	// The prior session must not linger pointing at a released thread
	_, err = m.Active(42)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEnd_ClearsSessionAndReleasesThread(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)
	ctx := context.Background()

	sess, err := m.Start(ctx, 42, "market")
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, 42))
	assert.Equal(t, 1, threads.deleteCount(sess.ThreadID))

	_, err = m.Active(42)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, m.End(ctx, 42), ErrNoSession)
}

func TestStillCurrent(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)
	ctx := context.Background()

	first, err := m.Start(ctx, 42, "market")
	require.NoError(t, err)
	assert.True(t, m.StillCurrent(first))

	second, err := m.Start(ctx, 42, "founder")
	require.NoError(t, err)
	assert.False(t, m.StillCurrent(first), "replaced session is no longer current")
	assert.True(t, m.StillCurrent(second))

	require.NoError(t, m.End(ctx, 42))
	assert.False(t, m.StillCurrent(second))
}

func TestStart_ConcurrentReplacementsOrphanNothing(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)
	ctx := context.Background()

	const starts = 50
	var wg sync.WaitGroup
	for i := 0; i < starts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := m.Start(ctx, 42, fmt.Sprintf("variant_%d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Every thread but the survivor was deleted exactly once
	active, err := m.Active(42)
	require.NoError(t, err)

	threads.mu.Lock()
	created := threads.created
	threads.mu.Unlock()
	require.Equal(t, starts, created)

	deletedTotal := 0
	for id, n := range threads.deleted {
		assert.Equal(t, 1, n, "thread %s deleted more than once", id)
		assert.NotEqual(t, active.ThreadID, id, "active thread must not be deleted")
		deletedTotal += n
	}
	assert.Equal(t, starts-1, deletedTotal)
}

func TestManager_UsersAreIndependent(t *testing.T) {
	threads := newFakeThreads()
	m := NewManager(threads, nil)
	ctx := context.Background()

	const users = 100
	var wg sync.WaitGroup
	var failures atomic.Int32
	for u := 1; u <= users; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if _, err := m.Start(ctx, userID, "market"); err != nil {
				failures.Add(1)
			}
		}(int64(u))
	}
	wg.Wait()

	require.Zero(t, failures.Load())
	seen := make(map[string]int64)
	for u := int64(1); u <= users; u++ {
		sess, err := m.Active(u)
		require.NoError(t, err)
		require.Equal(t, u, sess.UserID)
		prev, dup := seen[sess.ThreadID]
		require.False(t, dup, "thread %s shared by users %d and %d", sess.ThreadID, prev, u)
		seen[sess.ThreadID] = u
	}
}
