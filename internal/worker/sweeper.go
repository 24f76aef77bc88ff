package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/repository"
)

// Sweeper reconciles records stuck in PROCESSING after a worker died without
// settling them. Every worker process runs one; the guarded updates keep
// concurrent sweepers from double-settling a record.
type Sweeper struct {
	repos   []repository.EnrichableRepository
	broker  broker.Broker
	logger  *slog.Logger
	metrics *Metrics
	cfg     SweeperConfig
	now     func() time.Time
}

// SweeperConfig bounds one sweep pass.
type SweeperConfig struct {
	Queue      string
	Interval   time.Duration // tick between passes
	StaleAfter time.Duration // processing age before a record counts as stale
	Reenqueue  bool          // reset to PENDING and resubmit instead of failing
	Batch      int           // max records per kind per pass
	JobTimeout time.Duration // bounds for resubmitted jobs
	JobTTL     time.Duration
}

func NewSweeper(repos []repository.EnrichableRepository, b broker.Broker, cfg SweeperConfig, logger *slog.Logger, metrics *Metrics) *Sweeper {
	if cfg.Queue == "" {
		cfg.Queue = constants.DefaultQueue
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 5 * time.Minute
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Sweeper{
		repos:   repos,
		broker:  b,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	s.logger.Info("sweeper.start",
		"interval", s.cfg.Interval, "stale_after", s.cfg.StaleAfter, "reenqueue", s.cfg.Reenqueue)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper.stop")
			return nil
		case <-t.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("sweeper.pass.error", "error", err)
			}
		}
	}
}

// SweepOnce reclaims stale PROCESSING records across every enrichable kind
// and returns how many it settled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.StaleAfter)
	var swept int
	var firstErr error

	for _, repo := range s.repos {
		ids, err := repo.ListStaleProcessing(ctx, cutoff, s.cfg.Batch)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("list stale %s records: %w", repo.Kind(), err)
			}
			continue
		}
		for _, id := range ids {
			if s.reclaim(ctx, repo, id) {
				swept++
			}
		}
	}

	if swept > 0 {
		s.metrics.AddSwept(uint64(swept))
		s.logger.Info("sweeper.pass.ok", "swept", swept, "cutoff", cutoff)
	}
	return swept, firstErr
}

// reclaim settles one stale record: FAILED by default, back onto the queue
// in re-enqueue mode. A conflict means a worker settled the record between
// listing and now, which is not this sweeper's problem.
func (s *Sweeper) reclaim(ctx context.Context, repo repository.EnrichableRepository, id uuid.UUID) bool {
	kind := repo.Kind()

	if !s.cfg.Reenqueue {
		message := fmt.Sprintf("enrichment timed out: no worker settled this record within %s", s.cfg.StaleAfter)
		if err := repo.RecordEnrichmentFailure(ctx, id, constants.StatusFailed, message); err != nil {
			if errors.Is(err, repository.ErrStateConflict) {
				s.logger.Debug("sweeper.reclaim.settled_elsewhere", "kind", kind, "id", id)
				return false
			}
			s.logger.Error("sweeper.reclaim.error", "kind", kind, "id", id, "error", err)
			return false
		}
		s.logger.Warn("sweeper.reclaim.failed_record", "kind", kind, "id", id)
		return true
	}

	if err := repo.TransitionStatus(ctx, id, constants.StatusProcessing, constants.StatusPending); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			s.logger.Debug("sweeper.reclaim.settled_elsewhere", "kind", kind, "id", id)
			return false
		}
		s.logger.Error("sweeper.reclaim.error", "kind", kind, "id", id, "error", err)
		return false
	}
	jobID, err := s.broker.Enqueue(ctx, s.cfg.Queue, kind, id, s.cfg.JobTimeout, s.cfg.JobTTL)
	if err != nil {
		// Hand the record back to PROCESSING so the next pass retries the
		// resubmit; PENDING with no queued job would strand it for good.
		if rbErr := repo.TransitionStatus(ctx, id, constants.StatusPending, constants.StatusProcessing); rbErr != nil {
			s.logger.Error("sweeper.reclaim.rollback_failed", "kind", kind, "id", id, "error", rbErr)
		}
		s.logger.Error("sweeper.reclaim.enqueue_error", "kind", kind, "id", id, "error", err)
		return false
	}
	s.logger.Warn("sweeper.reclaim.requeued", "kind", kind, "id", id, "job_id", jobID)
	return true
}
