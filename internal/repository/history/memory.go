package history

import (
	"context"
	"sync"
	"time"
)

type memoryHistory struct {
	mu     sync.Mutex
	ttl    time.Duration
	seen   map[string]time.Time // Post id to expiry, the zero time never expires
	counts map[string]int64
}

// NewMemoryHistory keeps the seen set in process memory. It is the fallback
// when no redis url is configured, the history is lost on exit.
func NewMemoryHistory(ttl time.Duration) *memoryHistory {
	return &memoryHistory{
		ttl:    ttl,
		seen:   make(map[string]time.Time),
		counts: make(map[string]int64),
	}
}

func (m *memoryHistory) Seen(_ context.Context, postID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, exists := m.seen[postID]
	if !exists {
		return false, nil
	}

	if !expiry.IsZero() && time.Now().After(expiry) {
		delete(m.seen, postID)

		return false, nil
	}

	return true, nil
}

func (m *memoryHistory) MarkSeen(_ context.Context, postID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiry time.Time
	if m.ttl > 0 {
		expiry = time.Now().Add(m.ttl)
	}

	m.seen[postID] = expiry

	return nil
}

func (m *memoryHistory) IncGrabCount(_ context.Context, subreddit string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counts[subreddit]++

	return m.counts[subreddit], nil
}
