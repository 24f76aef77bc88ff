package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
)

type ActivityRepository interface {
	EnrichableRepository
	Create(ctx context.Context, activity *entity.Activity) (*entity.Activity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Activity, error)
	ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type activityRepository struct {
	processingState
}

func NewActivityRepository(pool *pgxpool.Pool, logger *slog.Logger) ActivityRepository {
	return &activityRepository{
		processingState: newProcessingState(pool, "activities", constants.KindActivity, logger),
	}
}

const activityColumns = `id, journal_id, name, notes, started_at, ended_at,
	processing_status, enrichment_data, enrichment_error,
	processing_started_at, processed_at, created_at, updated_at`

func scanActivity(row pgx.Row) (*entity.Activity, error) {
	var a entity.Activity
	var status string
	err := row.Scan(&a.ID, &a.JournalID, &a.Name, &a.Notes, &a.StartedAt, &a.EndedAt,
		&status, &a.EnrichmentData, &a.EnrichmentError,
		&a.ProcessingStartedAt, &a.ProcessedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ProcessingStatus = constants.ProcessingStatus(status)
	return &a, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *entity.Activity) (*entity.Activity, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO activities (journal_id, name, notes, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+activityColumns,
		activity.JournalID, activity.Name, activity.Notes, activity.StartedAt, activity.EndedAt)
	created, err := scanActivity(row)
	if err != nil {
		r.logger.Error("failed to create activity", "journal_id", activity.JournalID, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *activityRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Activity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)
	a, err := scanActivity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get activity", "activity_id", id, "error", err)
		return nil, err
	}
	return a, nil
}

func (r *activityRepository) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE journal_id = $1 ORDER BY started_at DESC`, journalID)
	if err != nil {
		r.logger.Error("failed to list activities", "journal_id", journalID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var activities []*entity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete activity", "activity_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// EnrichmentSource joins the name and free-form notes for the model.
func (r *activityRepository) EnrichmentSource(ctx context.Context, id uuid.UUID) (string, error) {
	var name string
	var notes *string
	err := r.pool.QueryRow(ctx,
		`SELECT name, notes FROM activities WHERE id = $1`, id).Scan(&name, &notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load activity text", "activity_id", id, "error", err)
		return "", err
	}
	if notes != nil && *notes != "" {
		return name + "\n\n" + *notes, nil
	}
	return name, nil
}
