// Package broker moves enrichment jobs between the API process and the
// workers through a shared Redis instance. A job is a reference to one
// record plus execution bounds; payloads stay in the database.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
)

// ErrUnavailable wraps connectivity failures talking to the queue store.
var ErrUnavailable = errors.New("broker unavailable")

// Job is one unit of deferred enrichment work.
type Job struct {
	ID         uuid.UUID                  `json:"id"`
	Queue      string                     `json:"queue"`
	EntityKind constants.EntityKind       `json:"entity_kind"`
	EntityID   uuid.UUID                  `json:"entity_id"`
	Status     constants.ProcessingStatus `json:"status"`
	EnqueuedAt time.Time                  `json:"enqueued_at"`
	ClaimedAt  *time.Time                 `json:"claimed_at,omitempty"`
	Timeout    time.Duration              `json:"timeout"`
	TTL        time.Duration              `json:"ttl"`
	Attempts   int                        `json:"attempts"`
	Cancelled  bool                       `json:"cancelled"`
}

// Outcome is the terminal result a worker records for a job.
type Outcome struct {
	Status     constants.ProcessingStatus `json:"status"`
	Error      string                     `json:"error,omitempty"`
	FinishedAt time.Time                  `json:"finished_at"`
}

// Broker is the queue contract shared by enqueuers and workers.
type Broker interface {
	// Enqueue submits a job and returns its id. The call never blocks on
	// workers; it fails fast with ErrUnavailable when the store is down.
	Enqueue(ctx context.Context, queue string, kind constants.EntityKind, entityID uuid.UUID, timeout, ttl time.Duration) (uuid.UUID, error)

	// Dequeue claims the next job. At most one caller receives any given
	// job. A nil job with nil error means the queue was idle for the poll
	// interval; callers just loop.
	Dequeue(ctx context.Context, queue string) (*Job, error)

	// RecordResult stores the terminal outcome for a job. Recording is
	// idempotent: once an outcome exists, later calls leave it unchanged.
	// The outcome is kept for the job's ttl and then discarded.
	RecordResult(ctx context.Context, jobID uuid.UUID, outcome Outcome) error

	// Lookup returns the job metadata and, if recorded, its outcome.
	// Returns nil job when the id is unknown or already discarded.
	Lookup(ctx context.Context, jobID uuid.UUID) (*Job, *Outcome, error)

	// Cancel flags a job so a worker claiming it later skips execution.
	// Jobs already claimed are unaffected.
	Cancel(ctx context.Context, jobID uuid.UUID) error
}
