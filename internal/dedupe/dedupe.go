// ABOUTME: TTL-based suppression of redelivered Telegram updates
// ABOUTME: Keys updates by sender and message id so retries are handled once

package dedupe

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// UpdateKey builds the dedupe key for a Telegram message or callback.
func UpdateKey(userID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", userID, messageID)
}

type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Suppressor tracks recently handled update keys so that redelivered
// updates (long-poll retries, double-tapped callback buttons) are
// processed exactly once within the TTL window. Size-bounded: when at
// capacity the oldest key is evicted in O(1) via the insertion-order list.
type Suppressor struct {
	mu      sync.Mutex
	seen    map[string]*entry
	order   *list.List
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	once    sync.Once
}

// New creates a suppressor with the given TTL and capacity. A background
// goroutine sweeps expired keys until Close is called.
func New(ttl time.Duration, maxSize int) *Suppressor {
	s := &Suppressor{
		seen:    make(map[string]*entry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Duplicate atomically checks whether the key was already handled within
// the TTL and marks it if not. Returns true for duplicates. The single
// locked check-and-mark avoids the race of separate lookup and insert.
func (s *Suppressor) Duplicate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.seen[key]; ok && time.Since(e.seenAt) < s.ttl {
		return true
	}
	s.mark(key)
	return false
}

// Len returns the number of tracked keys, expired or not.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Close stops the background sweeper. Safe to call more than once.
func (s *Suppressor) Close() {
	s.once.Do(func() { close(s.done) })
}

// mark records the key, evicting the oldest entry at capacity. Caller holds mu.
func (s *Suppressor) mark(key string) {
	now := time.Now()

	if e, ok := s.seen[key]; ok {
		e.seenAt = now
		s.order.MoveToBack(e.element)
		return
	}

	if len(s.seen) >= s.maxSize {
		if front := s.order.Front(); front != nil {
			old, _ := front.Value.(string)
			s.order.Remove(front)
			delete(s.seen, old)
		}
	}

	elem := s.order.PushBack(key)
	s.seen[key] = &entry{seenAt: now, element: elem}
}

// sweep periodically drops expired keys so memory tracks the active window.
func (s *Suppressor) sweep() {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			for front := s.order.Front(); front != nil; {
				key, _ := front.Value.(string)
				e := s.seen[key]
				if time.Since(e.seenAt) < s.ttl {
					break
				}
				next := front.Next()
				s.order.Remove(front)
				delete(s.seen, key)
				front = next
			}
			s.mu.Unlock()
		}
	}
}
