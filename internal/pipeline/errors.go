// Package pipeline holds the retry policy and the error taxonomy shared by
// the enrichment worker and the LLM client. Classification decides whether
// a failed call is attempted again or the job fails on the spot.
package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ConnectivityError marks transport-level trouble reaching the enrichment
// service: refused connections, 5xx answers, per-attempt timeouts. Another
// attempt may succeed.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("connectivity: %s: %v", e.Op, e.Err)
	}
	return "connectivity: " + e.Op
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// RateLimitError reports push-back from the service itself. Wait carries
// the server-suggested pause when one was given.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("rate limit exceeded, retry in %s", e.Wait)
	}
	return "rate limit exceeded"
}

// ValidationError marks input or model output the pipeline cannot use.
// The same call would fail the same way, so it is never retried.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation: %s: %v", e.Reason, e.Err)
	}
	return "validation: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthError marks rejected credentials. Retrying cannot help.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (status %d)", e.Status)
}

// TimeoutError marks a job that ran out of its overall deadline. It is
// terminal for the job even though each individual attempt was retryable.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.After)
}

// RetryExhaustedError reports that every allowed attempt failed. Last holds
// the final attempt's error for diagnostics.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// IsRetryable reports whether another attempt could plausibly succeed.
// Anything unrecognized counts as fatal so a broken call does not hammer
// the service.
func IsRetryable(err error) bool {
	var conn *ConnectivityError
	if errors.As(err, &conn) {
		return true
	}
	var rate *RateLimitError
	return errors.As(err, &rate)
}
