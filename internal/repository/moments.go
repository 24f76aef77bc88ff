package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
)

type MomentRepository interface {
	Create(ctx context.Context, moment *entity.Moment) (*entity.Moment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Moment, error)
	ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Moment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type momentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMomentRepository(pool *pgxpool.Pool, logger *slog.Logger) MomentRepository {
	return &momentRepository{
		pool:   pool,
		logger: logger,
	}
}

const momentColumns = `id, journal_id, caption, captured_at, latitude, longitude, created_at`

func scanMoment(row pgx.Row) (*entity.Moment, error) {
	var m entity.Moment
	err := row.Scan(&m.ID, &m.JournalID, &m.Caption, &m.CapturedAt,
		&m.Latitude, &m.Longitude, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *momentRepository) Create(ctx context.Context, moment *entity.Moment) (*entity.Moment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO moments (journal_id, caption, captured_at, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+momentColumns,
		moment.JournalID, moment.Caption, moment.CapturedAt, moment.Latitude, moment.Longitude)
	created, err := scanMoment(row)
	if err != nil {
		r.logger.Error("failed to create moment", "journal_id", moment.JournalID, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *momentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Moment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+momentColumns+` FROM moments WHERE id = $1`, id)
	m, err := scanMoment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get moment", "moment_id", id, "error", err)
		return nil, err
	}
	return m, nil
}

func (r *momentRepository) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Moment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+momentColumns+` FROM moments WHERE journal_id = $1 ORDER BY captured_at DESC`, journalID)
	if err != nil {
		r.logger.Error("failed to list moments", "journal_id", journalID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var moments []*entity.Moment
	for rows.Next() {
		m, err := scanMoment(rows)
		if err != nil {
			return nil, err
		}
		moments = append(moments, m)
	}
	return moments, rows.Err()
}

func (r *momentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM moments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete moment", "moment_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
