package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLocalLimiterAdmitsUpToLimit(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	l := NewLocalLimiter(3, time.Minute)
	l.setNow(func() time.Time { return clock })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		wait, err := l.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
		if wait != 0 {
			t.Fatalf("Acquire %d: wait = %s, want 0", i, wait)
		}
		clock = clock.Add(time.Second)
	}

	// fourth call inside the window must be told to wait until the first
	// counted call ages out: 60s window minus the 3s that already passed
	wait, err := l.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire over limit: %v", err)
	}
	if wait != 57*time.Second {
		t.Errorf("wait = %s, want 57s (oldest call ages out then)", wait)
	}
}

func TestLocalLimiterWindowSlides(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	l := NewLocalLimiter(1, 10*time.Second)
	l.setNow(func() time.Time { return clock })
	ctx := context.Background()

	if wait, _ := l.Acquire(ctx); wait != 0 {
		t.Fatalf("first call: wait = %s", wait)
	}
	clock = clock.Add(4 * time.Second)
	if wait, _ := l.Acquire(ctx); wait != 6*time.Second {
		t.Errorf("inside window: wait = %s, want 6s", wait)
	}
	clock = clock.Add(7 * time.Second)
	if wait, _ := l.Acquire(ctx); wait != 0 {
		t.Errorf("after window: wait should be 0")
	}
}

func TestLocalLimiterNeverOveradmits(t *testing.T) {
	const limit = 5
	const callers = limit + 1
	l := NewLocalLimiter(limit, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wait, err := l.Acquire(ctx)
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			if wait == 0 {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("admitted %d concurrent callers, want exactly %d", admitted, limit)
	}
}

func TestLocalLimiterHonorsContext(t *testing.T) {
	l := NewLocalLimiter(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Acquire(ctx); err == nil {
		t.Error("Acquire with cancelled context should fail")
	}
}
