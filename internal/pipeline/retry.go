package pipeline

import (
	"context"
	"errors"
	"time"
)

// Gate admits one call per successful Acquire, or names the wait until it
// can. ratelimit.Limiter satisfies it.
type Gate interface {
	Acquire(ctx context.Context) (time.Duration, error)
}

// Policy bounds attempts against the enrichment service. It is a plain
// value: construct once, inspect anywhere, pass by copy.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Sleep is swapped out by tests. Nil means a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		MaxDelay:    maxDelay,
	}
}

// Backoff returns the pause after failed attempt n (1-based): BaseDelay
// doubled per prior attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay << (attempt - 1)
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Execute runs op under the policy. The gate is consulted before every
// attempt, including the first. Retryable failures back off and go again;
// fatal failures and context expiry surface immediately. When the attempt
// budget runs out the caller gets a RetryExhaustedError wrapping the last
// failure.
func (p Policy) Execute(ctx context.Context, gate Gate, op func(context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := p.runAttempt(ctx, gate, op)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if !IsRetryable(err) {
			return err
		}
		last = err

		if attempt == maxAttempts {
			break
		}
		delay := p.Backoff(attempt)
		var rate *RateLimitError
		if errors.As(err, &rate) && rate.Wait > delay {
			delay = rate.Wait
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &RetryExhaustedError{Attempts: maxAttempts, Last: last}
}

// runAttempt blocks on the gate, then makes a single call. A gate store
// failure consumes the attempt as a connectivity error rather than looping
// forever.
func (p Policy) runAttempt(ctx context.Context, gate Gate, op func(context.Context) error) error {
	if gate != nil {
		for {
			d, err := gate.Acquire(ctx)
			if err != nil {
				return &ConnectivityError{Op: "rate limiter", Err: err}
			}
			if d <= 0 {
				break
			}
			if err := p.sleep(ctx, d); err != nil {
				return err
			}
		}
	}
	return op(ctx)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
