// Package feedback keeps a bounded in-memory log of user feedback entries for
// the monitoring surface.
package feedback

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

const (
	defaultMaxEntries = 500
	maxRecentLimit    = 200
	defaultRecent     = 50
)

// Store is a fixed-capacity feedback log. Oldest entries are dropped once the
// capacity is reached. Safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	maxEntries int
	items      []domain.Feedback
	now        func() time.Time
}

// NewStore creates a log holding at most maxEntries items; zero or negative
// falls back to the default capacity.
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Store{maxEntries: maxEntries, now: time.Now}
}

// Add records one entry, assigning its id and timestamp.
func (s *Store) Add(entry domain.Feedback) domain.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now()
	s.items = append(s.items, entry)
	if overflow := len(s.items) - s.maxEntries; overflow > 0 {
		s.items = append(s.items[:0], s.items[overflow:]...)
	}
	return entry
}

// Recent returns up to limit entries, newest first. The limit is clamped to
// [1, 200] and defaults to 50 when not positive.
func (s *Store) Recent(limit int) []domain.Feedback {
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.items) {
		limit = len(s.items)
	}
	out := make([]domain.Feedback, 0, limit)
	for i := len(s.items) - 1; i >= len(s.items)-limit; i-- {
		out = append(out, s.items[i])
	}
	return out
}

// Size reports how many entries are currently retained.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
