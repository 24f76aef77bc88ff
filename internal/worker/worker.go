// Package worker drains the enrichment queue. A worker claims one job at a
// time and runs it to a terminal status; throughput scales by running more
// worker processes against the same queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/events"
	"github.com/daybook-app/daybook/internal/pipeline"
	"github.com/daybook-app/daybook/internal/repository"
)

// Repositories is the slice of the repository layer the worker needs.
// *repository.Registry satisfies it.
type Repositories interface {
	Enrichable(kind constants.EntityKind) (repository.EnrichableRepository, bool)
}

type Worker struct {
	broker    broker.Broker
	repos     Repositories
	processor *Processor
	events    events.Publisher
	logger    *slog.Logger
	metrics   *Metrics
	queue     string
	failDelay time.Duration
}

type Option func(*Worker)

func WithQueue(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.queue = name
		}
	}
}

// WithFailDelay sets the pause after a dequeue error before polling again.
func WithFailDelay(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.failDelay = d
		}
	}
}

func NewWorker(b broker.Broker, repos Repositories, proc *Processor, pub events.Publisher, logger *slog.Logger, opts ...Option) *Worker {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		broker:    b,
		repos:     repos,
		processor: proc,
		events:    pub,
		logger:    logger,
		metrics:   &Metrics{},
		queue:     constants.DefaultQueue,
		failDelay: time.Second,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Worker) Metrics() *Metrics { return w.metrics }

// Run drains the queue until ctx is cancelled. A store error pauses the loop
// briefly instead of spinning.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker.start", "queue", w.queue)
	for {
		job, err := w.broker.Dequeue(ctx, w.queue)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker.stop", "queue", w.queue)
				return nil
			}
			w.logger.Error("worker.dequeue.error", "error", err)
			select {
			case <-ctx.Done():
				w.logger.Info("worker.stop", "queue", w.queue)
				return nil
			case <-time.After(w.failDelay):
			}
			continue
		}
		if job == nil {
			// idle poll
			if ctx.Err() != nil {
				w.logger.Info("worker.stop", "queue", w.queue)
				return nil
			}
			continue
		}
		w.handle(ctx, job)
	}
}

// handle runs one claimed job to a terminal outcome.
func (w *Worker) handle(ctx context.Context, job *broker.Job) {
	w.metrics.IncClaimed()
	start := time.Now()
	log := w.logger.With("job_id", job.ID, "kind", job.EntityKind, "entity_id", job.EntityID)

	repo, ok := w.repos.Enrichable(job.EntityKind)
	if !ok {
		log.Error("worker.job.unknown_kind")
		w.record(ctx, job, constants.StatusFailed, fmt.Sprintf("unknown entity kind %q", job.EntityKind))
		w.metrics.IncFailed()
		return
	}

	// Claim the record. Losing the race, or finding the record gone or in
	// another status, means someone else owns the outcome: skip the job and
	// leave the record alone.
	if err := repo.TransitionStatus(ctx, job.EntityID, constants.StatusPending, constants.StatusProcessing); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			log.Warn("worker.job.claim_lost", "error", err)
			w.record(ctx, job, constants.StatusSkipped, "record was not pending at claim time")
			w.metrics.IncSkipped()
			return
		}
		log.Error("worker.job.claim_error", "error", err)
		w.record(ctx, job, constants.StatusFailed, "claim record: "+errorSummary(err))
		w.metrics.IncFailed()
		return
	}

	// The record is PROCESSING and this worker owns it from here on.
	if job.Cancelled {
		w.skip(ctx, log, repo, job, "job cancelled before execution")
		return
	}

	text, err := repo.EnrichmentSource(ctx, job.EntityID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			w.skip(ctx, log, repo, job, "record deleted before enrichment")
			return
		}
		w.fail(ctx, log, repo, job, "load record text: "+errorSummary(err), start)
		return
	}
	if strings.TrimSpace(text) == "" {
		w.skip(ctx, log, repo, job, "record has no text to enrich")
		return
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	_, doc, err := w.processor.Process(jobCtx, job.EntityKind, text)
	cancel()

	switch {
	case err == nil:
		if cErr := repo.CompleteEnrichment(ctx, job.EntityID, doc); cErr != nil {
			if errors.Is(cErr, repository.ErrStateConflict) {
				// A sweeper or operator moved the record mid-flight; its
				// status is no longer this worker's to write.
				log.Warn("worker.job.completion_conflict", "error", cErr)
				w.record(ctx, job, constants.StatusSkipped, "record state changed during enrichment")
				w.metrics.IncSkipped()
				return
			}
			w.fail(ctx, log, repo, job, "persist enrichment: "+errorSummary(cErr), start)
			return
		}
		w.record(ctx, job, constants.StatusCompleted, "")
		w.metrics.IncCompleted()
		log.Info("worker.job.completed", "elapsed_ms", time.Since(start).Milliseconds())

	case ctx.Err() != nil:
		// Shutdown mid-job. Leave the record in PROCESSING for the sweeper
		// and record no outcome; a partial result would block inspection of
		// what actually happened.
		log.Warn("worker.job.interrupted", "error", err)

	case errors.Is(err, context.DeadlineExceeded):
		tErr := &pipeline.TimeoutError{After: timeout}
		w.fail(ctx, log, repo, job, tErr.Error(), start)

	default:
		w.fail(ctx, log, repo, job, errorSummary(err), start)
	}
}

func (w *Worker) fail(ctx context.Context, log *slog.Logger, repo repository.EnrichableRepository, job *broker.Job, message string, start time.Time) {
	if err := repo.RecordEnrichmentFailure(ctx, job.EntityID, constants.StatusFailed, message); err != nil {
		log.Error("worker.job.mark_failed_error", "error", err)
	}
	w.record(ctx, job, constants.StatusFailed, message)
	w.metrics.IncFailed()
	log.Error("worker.job.failed", "error", message, "elapsed_ms", time.Since(start).Milliseconds())
}

func (w *Worker) skip(ctx context.Context, log *slog.Logger, repo repository.EnrichableRepository, job *broker.Job, reason string) {
	if err := repo.RecordEnrichmentFailure(ctx, job.EntityID, constants.StatusSkipped, reason); err != nil {
		log.Error("worker.job.mark_skipped_error", "error", err)
	}
	w.record(ctx, job, constants.StatusSkipped, reason)
	w.metrics.IncSkipped()
	log.Warn("worker.job.skipped", "reason", reason)
}

// record stores the job outcome and emits the lifecycle event. Both are best
// effort: the record's own status is already settled and is the source of
// truth.
func (w *Worker) record(ctx context.Context, job *broker.Job, status constants.ProcessingStatus, message string) {
	finished := time.Now().UTC()

	outcome := broker.Outcome{Status: status, Error: message, FinishedAt: finished}
	if err := w.broker.RecordResult(ctx, job.ID, outcome); err != nil {
		w.logger.Error("worker.result.record_error", "job_id", job.ID, "error", err)
	}

	ev := events.Event{
		JobID:      job.ID,
		EntityKind: job.EntityKind,
		EntityID:   job.EntityID,
		Status:     status,
		Error:      message,
		FinishedAt: finished,
	}
	if err := w.events.Publish(ctx, ev); err != nil {
		w.logger.Warn("worker.event.publish_error", "job_id", job.ID, "error", err)
	}
}

// errorSummary trims an error chain to something that fits the record's
// error column and a log line.
func errorSummary(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if len(s) > 500 {
		s = s[:500] + "…"
	}
	return s
}
