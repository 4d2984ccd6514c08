package bucket

import (
	"context"
	"sync"
	"time"

	"tallysync/internal/ratelimit/models"
)

// InMemory is a sliding-window limiter local to one process. It serves as the
// only limiter without Redis and as the fallback while Redis is unhealthy.
type InMemory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

type MemoryOption func(*InMemory)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemory) {
		s.now = now
	}
}

func New(opts ...MemoryOption) *InMemory {
	s := &InMemory{
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records one request under key when the window has room.
func (s *InMemory) Allow(_ context.Context, key string, limit models.Limit) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stamps := prune(s.windows[key], now.Add(-limit.Window))
	if len(stamps) >= limit.Requests {
		s.windows[key] = stamps
		resetAt := stamps[0].Add(limit.Window)
		return &models.Result{
			Limit:      limit.Requests,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &models.Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - len(stamps),
		ResetAt:   stamps[0].Add(limit.Window),
	}, nil
}

// Count returns how many requests key has in its current window.
func (s *InMemory) Count(key string, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamps := prune(s.windows[key], s.now().Add(-window))
	s.windows[key] = stamps
	return len(stamps)
}

// prune drops timestamps at or before cutoff. stamps is ascending.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
