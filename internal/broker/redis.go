package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/common"
)

const defaultPollInterval = 5 * time.Second

// RedisBroker keeps queues as Redis lists, job metadata as hashes and
// recorded outcomes as plain keys written with SETNX. BRPOP pops each id
// exactly once, which gives the single-claimer guarantee.
type RedisBroker struct {
	rdb          *redis.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

type RedisOption func(*RedisBroker)

// WithPollInterval bounds how long Dequeue blocks before reporting idle.
func WithPollInterval(d time.Duration) RedisOption {
	return func(b *RedisBroker) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

func NewRedisBroker(rdb *redis.Client, logger *slog.Logger, opts ...RedisOption) *RedisBroker {
	if logger == nil {
		logger = slog.Default()
	}
	b := &RedisBroker{
		rdb:          rdb,
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func queueKey(queue string) string  { return "queue:" + queue }
func jobKey(id uuid.UUID) string    { return "job:" + id.String() }
func resultKey(id uuid.UUID) string { return "result:" + id.String() }

func (b *RedisBroker) Enqueue(ctx context.Context, queue string, kind constants.EntityKind, entityID uuid.UUID, timeout, ttl time.Duration) (uuid.UUID, error) {
	if queue == "" {
		return uuid.Nil, common.InvalidInputErrorf("queue name is required")
	}
	if entityID == uuid.Nil {
		return uuid.Nil, common.InvalidInputErrorf("entity id is required")
	}
	if timeout <= 0 || ttl <= 0 {
		return uuid.Nil, common.InvalidInputErrorf("timeout and ttl must be positive")
	}

	id := uuid.New()
	now := time.Now().UTC()

	pipe := b.rdb.TxPipeline()
	pipe.HSet(ctx, jobKey(id), map[string]interface{}{
		"id":          id.String(),
		"queue":       queue,
		"entity_kind": string(kind),
		"entity_id":   entityID.String(),
		"status":      string(constants.StatusPending),
		"enqueued_at": now.Format(time.RFC3339Nano),
		"timeout_ms":  timeout.Milliseconds(),
		"ttl_ms":      ttl.Milliseconds(),
		"attempts":    0,
		"cancelled":   0,
	})
	pipe.Expire(ctx, jobKey(id), ttl)
	pipe.LPush(ctx, queueKey(queue), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		b.logger.Error("broker.enqueue.error", "queue", queue, "entity_kind", kind, "entity_id", entityID, "error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b.logger.Info("broker.enqueue.ok", "job_id", id, "queue", queue, "entity_kind", kind, "entity_id", entityID)
	return id, nil
}

func (b *RedisBroker) Dequeue(ctx context.Context, queue string) (*Job, error) {
	res, err := b.rdb.BRPop(ctx, b.pollInterval, queueKey(queue)).Result()
	if errors.Is(err, redis.Nil) {
		// idle poll, nothing queued
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	id, err := uuid.Parse(res[1])
	if err != nil {
		b.logger.Error("broker.dequeue.bad_id", "queue", queue, "value", res[1])
		return nil, nil
	}

	vals, err := b.rdb.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vals) == 0 {
		// metadata expired while the id sat in the queue
		b.logger.Warn("broker.dequeue.expired", "job_id", id, "queue", queue)
		return nil, nil
	}

	job, err := parseJob(vals)
	if err != nil {
		b.logger.Error("broker.dequeue.corrupt", "job_id", id, "error", err)
		return nil, nil
	}

	now := time.Now().UTC()
	pipe := b.rdb.TxPipeline()
	pipe.HIncrBy(ctx, jobKey(id), "attempts", 1)
	pipe.HSet(ctx, jobKey(id),
		"claimed_at", now.Format(time.RFC3339Nano),
		"status", string(constants.StatusProcessing))
	pipe.Expire(ctx, jobKey(id), job.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	job.Attempts++
	job.ClaimedAt = &now
	job.Status = constants.StatusProcessing
	b.logger.Info("broker.dequeue.ok", "job_id", job.ID, "queue", queue, "entity_kind", job.EntityKind, "entity_id", job.EntityID, "attempts", job.Attempts)
	return job, nil
}

func (b *RedisBroker) RecordResult(ctx context.Context, jobID uuid.UUID, outcome Outcome) error {
	if outcome.FinishedAt.IsZero() {
		outcome.FinishedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		return err
	}

	ttl := b.jobTTL(ctx, jobID)
	set, err := b.rdb.SetNX(ctx, resultKey(jobID), payload, ttl).Result()
	if err != nil {
		b.logger.Error("broker.result.error", "job_id", jobID, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !set {
		existing, getErr := b.rdb.Get(ctx, resultKey(jobID)).Bytes()
		if getErr == nil && !bytes.Equal(existing, payload) {
			b.logger.Warn("broker.result.duplicate_mismatch", "job_id", jobID, "status", outcome.Status)
		}
		return nil
	}

	pipe := b.rdb.TxPipeline()
	pipe.HSet(ctx, jobKey(jobID), "status", string(outcome.Status))
	pipe.Expire(ctx, jobKey(jobID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		b.logger.Warn("broker.result.meta_refresh_failed", "job_id", jobID, "error", err)
	}

	b.logger.Info("broker.result.ok", "job_id", jobID, "status", outcome.Status)
	return nil
}

func (b *RedisBroker) Lookup(ctx context.Context, jobID uuid.UUID) (*Job, *Outcome, error) {
	vals, err := b.rdb.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vals) == 0 {
		return nil, nil, nil
	}
	job, err := parseJob(vals)
	if err != nil {
		return nil, nil, err
	}

	raw, err := b.rdb.Get(ctx, resultKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return job, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var outcome Outcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return nil, nil, err
	}
	return job, &outcome, nil
}

func (b *RedisBroker) Cancel(ctx context.Context, jobID uuid.UUID) error {
	exists, err := b.rdb.Exists(ctx, jobKey(jobID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		return common.ErrNotFound
	}
	if err := b.rdb.HSet(ctx, jobKey(jobID), "cancelled", 1).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	b.logger.Info("broker.cancel.ok", "job_id", jobID)
	return nil
}

// jobTTL reads the job's configured ttl, falling back to a day when the
// metadata is already gone.
func (b *RedisBroker) jobTTL(ctx context.Context, jobID uuid.UUID) time.Duration {
	raw, err := b.rdb.HGet(ctx, jobKey(jobID), "ttl_ms").Result()
	if err != nil {
		return 24 * time.Hour
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(ms) * time.Millisecond
}

func parseJob(vals map[string]string) (*Job, error) {
	id, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("job id: %w", err)
	}
	entityID, err := uuid.Parse(vals["entity_id"])
	if err != nil {
		return nil, fmt.Errorf("entity id: %w", err)
	}
	enqueuedAt, err := time.Parse(time.RFC3339Nano, vals["enqueued_at"])
	if err != nil {
		return nil, fmt.Errorf("enqueued_at: %w", err)
	}
	timeoutMS, err := strconv.ParseInt(vals["timeout_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("timeout_ms: %w", err)
	}
	ttlMS, err := strconv.ParseInt(vals["ttl_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ttl_ms: %w", err)
	}
	attempts, _ := strconv.Atoi(vals["attempts"])

	job := &Job{
		ID:         id,
		Queue:      vals["queue"],
		EntityKind: constants.EntityKind(vals["entity_kind"]),
		EntityID:   entityID,
		Status:     constants.ProcessingStatus(vals["status"]),
		EnqueuedAt: enqueuedAt,
		Timeout:    time.Duration(timeoutMS) * time.Millisecond,
		TTL:        time.Duration(ttlMS) * time.Millisecond,
		Attempts:   attempts,
		Cancelled:  vals["cancelled"] == "1",
	}
	if raw, ok := vals["claimed_at"]; ok && raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			job.ClaimedAt = &t
		}
	}
	return job, nil
}
