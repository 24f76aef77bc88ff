// Package ratelimit bounds how often the enrichment service is called.
// The Redis limiter is shared by every worker process; the local limiter
// covers single-process setups and tests.
package ratelimit

import (
	"context"
	"time"
)

// Limiter gates calls to the enrichment service.
type Limiter interface {
	// Acquire consumes one unit when capacity is available and returns 0.
	// When the window is full it consumes nothing and returns how long the
	// caller must wait before trying again.
	Acquire(ctx context.Context) (time.Duration, error)
}
