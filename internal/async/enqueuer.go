// Package async hands records to the enrichment pipeline. The enqueuer owns
// the status handoff into PENDING; everything past that point happens in the
// worker process, reached only through the shared broker.
package async

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/repository"
)

// Repositories is the slice of the repository layer the enqueuer needs.
// *repository.Registry satisfies it.
type Repositories interface {
	Enrichable(kind constants.EntityKind) (repository.EnrichableRepository, bool)
}

// Enqueuer submits records for asynchronous enrichment. Calls return as soon
// as the job is queued; they never wait for enrichment itself.
type Enqueuer interface {
	// Enqueue moves a NOT_PROCESSED record to PENDING and submits a job.
	// When the broker cannot take the job the record is handed back to
	// NOT_PROCESSED and the error is returned to the caller.
	Enqueue(ctx context.Context, kind constants.EntityKind, entityID uuid.UUID) (uuid.UUID, error)

	// Reenqueue resubmits a record that already reached a terminal status.
	// Records that are queued or running are left alone and the call fails
	// with repository.ErrStateConflict.
	Reenqueue(ctx context.Context, kind constants.EntityKind, entityID uuid.UUID) (uuid.UUID, error)
}

type enqueuer struct {
	broker  broker.Broker
	repos   Repositories
	logger  *slog.Logger
	queue   string
	timeout time.Duration
	ttl     time.Duration
}

type Option func(*enqueuer)

func WithQueue(name string) Option {
	return func(e *enqueuer) {
		if name != "" {
			e.queue = name
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(e *enqueuer) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithJobTTL(d time.Duration) Option {
	return func(e *enqueuer) {
		if d > 0 {
			e.ttl = d
		}
	}
}

func NewEnqueuer(b broker.Broker, repos Repositories, logger *slog.Logger, opts ...Option) Enqueuer {
	e := &enqueuer{
		broker:  b,
		repos:   repos,
		logger:  logger,
		queue:   constants.DefaultQueue,
		timeout: 3 * time.Minute,
		ttl:     24 * time.Hour,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *enqueuer) Enqueue(ctx context.Context, kind constants.EntityKind, entityID uuid.UUID) (uuid.UUID, error) {
	repo, ok := e.repos.Enrichable(kind)
	if !ok {
		return uuid.Nil, common.InvalidInputErrorf("%s records are not enrichable", kind)
	}
	return e.submit(ctx, repo, entityID, constants.StatusNotProcessed)
}

func (e *enqueuer) Reenqueue(ctx context.Context, kind constants.EntityKind, entityID uuid.UUID) (uuid.UUID, error) {
	repo, ok := e.repos.Enrichable(kind)
	if !ok {
		return uuid.Nil, common.InvalidInputErrorf("%s records are not enrichable", kind)
	}

	current, err := repo.CurrentStatus(ctx, entityID)
	if err != nil {
		return uuid.Nil, err
	}
	if !current.Terminal() {
		return uuid.Nil, fmt.Errorf("%w: %s %s is %s, not terminal",
			repository.ErrStateConflict, kind, entityID, current)
	}
	// The guarded update below re-checks current, so a racing worker or
	// sweeper flips at most one of the two callers through.
	return e.submit(ctx, repo, entityID, current)
}

// submit performs the guarded from -> PENDING transition, then hands the job
// to the broker. Status moves first so a worker can never observe a queued
// job whose record is still in the old status.
func (e *enqueuer) submit(ctx context.Context, repo repository.EnrichableRepository, entityID uuid.UUID, from constants.ProcessingStatus) (uuid.UUID, error) {
	kind := repo.Kind()

	if err := repo.TransitionStatus(ctx, entityID, from, constants.StatusPending); err != nil {
		return uuid.Nil, err
	}

	jobID, err := e.broker.Enqueue(ctx, e.queue, kind, entityID, e.timeout, e.ttl)
	if err != nil {
		// The job never reached the queue, so no worker can race this
		// rollback; the record must not sit in PENDING with nothing queued.
		if rbErr := repo.TransitionStatus(ctx, entityID, constants.StatusPending, from); rbErr != nil {
			e.logger.Error("enqueue.rollback_failed",
				"kind", kind, "id", entityID, "restore", from, "error", rbErr)
		}
		return uuid.Nil, fmt.Errorf("enqueue %s %s: %w", kind, entityID, err)
	}

	e.logger.Info("enqueue.ok",
		"kind", kind, "id", entityID, "job_id", jobID, "queue", e.queue)
	return jobID, nil
}
