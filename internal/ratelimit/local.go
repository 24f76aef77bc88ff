package ratelimit

import (
	"context"
	"sync"
	"time"
)

// LocalLimiter is an in-process sliding window: it remembers the time of
// each counted call and admits a new one only while fewer than limit calls
// happened inside the window.
type LocalLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  []time.Time
	now    func() time.Time
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *LocalLimiter) Acquire(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// drop calls that slid out of the window
	kept := l.calls[:0]
	for _, t := range l.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.calls = kept

	if len(l.calls) < l.limit {
		l.calls = append(l.calls, now)
		return 0, nil
	}

	// capacity frees when the oldest counted call leaves the window
	wait := l.calls[0].Add(l.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait, nil
}

// setNow swaps the clock for tests.
func (l *LocalLimiter) setNow(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
