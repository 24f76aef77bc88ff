package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/common"
)

// ErrStateConflict is returned when a guarded status update matched no row:
// the record is gone or its status changed underneath the caller.
var ErrStateConflict = errors.New("processing status conflict")

// EnrichableRepository is the slice of a record repository the enrichment
// pipeline drives. Every transition is guarded on the current status so
// that concurrent workers cannot double-apply a change.
type EnrichableRepository interface {
	Kind() constants.EntityKind

	// EnrichmentSource loads the free text submitted to the enrichment
	// service for this record.
	EnrichmentSource(ctx context.Context, id uuid.UUID) (string, error)

	// CurrentStatus reads the record's processing status.
	CurrentStatus(ctx context.Context, id uuid.UUID) (constants.ProcessingStatus, error)

	// TransitionStatus performs a guarded from -> to status change and
	// returns ErrStateConflict when the record is not currently in from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to constants.ProcessingStatus) error

	// CompleteEnrichment stores the enrichment payload and moves
	// PROCESSING -> COMPLETED.
	CompleteEnrichment(ctx context.Context, id uuid.UUID, data json.RawMessage) error

	// RecordEnrichmentFailure moves PROCESSING -> FAILED or SKIPPED and
	// stores a short error summary on the record.
	RecordEnrichmentFailure(ctx context.Context, id uuid.UUID, to constants.ProcessingStatus, message string) error

	// ListStaleProcessing returns ids that have sat in PROCESSING since
	// before cutoff, oldest first.
	ListStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// processingState implements the status-machine half of EnrichableRepository
// for one table. Record repositories embed it and add their own CRUD.
type processingState struct {
	pool   *pgxpool.Pool
	table  string
	kind   constants.EntityKind
	logger *slog.Logger
}

func newProcessingState(pool *pgxpool.Pool, table string, kind constants.EntityKind, logger *slog.Logger) processingState {
	return processingState{pool: pool, table: table, kind: kind, logger: logger}
}

func (p processingState) Kind() constants.EntityKind {
	return p.kind
}

func (p processingState) CurrentStatus(ctx context.Context, id uuid.UUID) (constants.ProcessingStatus, error) {
	query := fmt.Sprintf(`SELECT processing_status FROM %s WHERE id = $1`, p.table)

	var raw string
	if err := p.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", err
	}
	return constants.ProcessingStatus(raw), nil
}

func (p processingState) TransitionStatus(ctx context.Context, id uuid.UUID, from, to constants.ProcessingStatus) error {
	var query string
	switch to {
	case constants.StatusProcessing:
		// stamp the claim time so stuck records can be swept later
		query = fmt.Sprintf(`UPDATE %s
			SET processing_status = $1, processing_started_at = now(), updated_at = now()
			WHERE id = $2 AND processing_status = $3`, p.table)
	case constants.StatusPending:
		// entering the queue clears leftovers from any previous run
		query = fmt.Sprintf(`UPDATE %s
			SET processing_status = $1, enrichment_error = NULL, processing_started_at = NULL, updated_at = now()
			WHERE id = $2 AND processing_status = $3`, p.table)
	default:
		query = fmt.Sprintf(`UPDATE %s
			SET processing_status = $1, updated_at = now()
			WHERE id = $2 AND processing_status = $3`, p.table)
	}

	ct, err := p.pool.Exec(ctx, query, string(to), id, string(from))
	if err != nil {
		p.logger.Error("failed to update processing status",
			"kind", p.kind, "id", id, "from", from, "to", to, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s is not %s", ErrStateConflict, p.kind, id, from)
	}
	return nil
}

func (p processingState) CompleteEnrichment(ctx context.Context, id uuid.UUID, data json.RawMessage) error {
	query := fmt.Sprintf(`UPDATE %s
		SET processing_status = $1, enrichment_data = $2, enrichment_error = NULL,
		    processed_at = now(), updated_at = now()
		WHERE id = $3 AND processing_status = $4`, p.table)

	ct, err := p.pool.Exec(ctx, query,
		string(constants.StatusCompleted), data, id, string(constants.StatusProcessing))
	if err != nil {
		p.logger.Error("failed to store enrichment result", "kind", p.kind, "id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s is not %s", ErrStateConflict, p.kind, id, constants.StatusProcessing)
	}
	return nil
}

func (p processingState) RecordEnrichmentFailure(ctx context.Context, id uuid.UUID, to constants.ProcessingStatus, message string) error {
	if to != constants.StatusFailed && to != constants.StatusSkipped {
		return fmt.Errorf("%w: %s is not a failure status", ErrStateConflict, to)
	}

	query := fmt.Sprintf(`UPDATE %s
		SET processing_status = $1, enrichment_error = $2,
		    processed_at = now(), updated_at = now()
		WHERE id = $3 AND processing_status = $4`, p.table)

	ct, err := p.pool.Exec(ctx, query, string(to), message, id, string(constants.StatusProcessing))
	if err != nil {
		p.logger.Error("failed to record enrichment failure", "kind", p.kind, "id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s is not %s", ErrStateConflict, p.kind, id, constants.StatusProcessing)
	}
	return nil
}

func (p processingState) ListStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	query := fmt.Sprintf(`SELECT id FROM %s
		WHERE processing_status = $1 AND processing_started_at < $2
		ORDER BY processing_started_at
		LIMIT $3`, p.table)

	rows, err := p.pool.Query(ctx, query, string(constants.StatusProcessing), cutoff, limit)
	if err != nil {
		p.logger.Error("failed to list stale records", "kind", p.kind, "error", err)
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
