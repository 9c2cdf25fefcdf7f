// ABOUTME: Tests for update deduplication
// ABOUTME: Covers duplicate detection, TTL expiry, capacity eviction, and key building

package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestDuplicate_FirstSeenThenRejected(t *testing.T) {
	s := New(time.Minute, 100)
	defer s.Close()

	key := UpdateKey(42, 1001)
	if s.Duplicate(key) {
		t.Error("first sighting should not be a duplicate")
	}
	if !s.Duplicate(key) {
		t.Error("second sighting should be a duplicate")
	}
}

func TestDuplicate_ExpiredKeyIsFresh(t *testing.T) {
	s := New(20*time.Millisecond, 100)
	defer s.Close()

	key := UpdateKey(42, 1001)
	s.Duplicate(key)
	time.Sleep(40 * time.Millisecond)

	if s.Duplicate(key) {
		t.Error("expired key should be treated as fresh")
	}
}

func TestCapacityEviction(t *testing.T) {
	s := New(time.Minute, 3)
	defer s.Close()

	for i := 0; i < 4; i++ {
		s.Duplicate(fmt.Sprintf("key-%d", i))
	}

	if s.Len() != 3 {
		t.Errorf("expected 3 tracked keys, got %d", s.Len())
	}
	// key-0 was oldest and should have been evicted
	if s.Duplicate("key-0") {
		t.Error("evicted key should be seen as fresh")
	}
	// key-3 is still tracked
	if !s.Duplicate("key-3") {
		t.Error("recent key should still be a duplicate")
	}
}

func TestDuplicate_Concurrent(t *testing.T) {
	s := New(time.Minute, 1000)
	defer s.Close()

	const goroutines = 50
	key := UpdateKey(7, 99)

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !s.Duplicate(key) {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if fresh != 1 {
		t.Errorf("exactly one goroutine should see the key fresh, got %d", fresh)
	}
}

func TestUpdateKey(t *testing.T) {
	if got := UpdateKey(42, 1001); got != "42:1001" {
		t.Errorf("UpdateKey = %q, want %q", got, "42:1001")
	}
	if UpdateKey(1, 23) == UpdateKey(12, 3) {
		t.Error("distinct user/message pairs must not collide")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	s := New(10*time.Millisecond, 100)
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.Duplicate(fmt.Sprintf("key-%d", i))
	}

	// Sweeper runs at 1s minimum, so force a window where lazy expiry applies
	time.Sleep(30 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if s.Duplicate(fmt.Sprintf("key-%d", i)) {
			t.Errorf("key-%d should have expired", i)
		}
	}
}
