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

type JournalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Journal, error)
	CreateJournal(ctx context.Context, journal *entity.Journal) (*entity.Journal, error)
	ListJournals(ctx context.Context) ([]*entity.Journal, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type journalRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewJournalRepository(pool *pgxpool.Pool, logger *slog.Logger) JournalRepository {
	return &journalRepository{
		pool:   pool,
		logger: logger,
	}
}

const journalColumns = `id, name, description, timezone, created_at, updated_at`

func scanJournal(row pgx.Row) (*entity.Journal, error) {
	var j entity.Journal
	err := row.Scan(&j.ID, &j.Name, &j.Description, &j.Timezone, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *journalRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Journal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE id = $1`, id)
	j, err := scanJournal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get journal", "journal_id", id, "error", err)
		return nil, err
	}
	return j, nil
}

func (r *journalRepository) CreateJournal(ctx context.Context, journal *entity.Journal) (*entity.Journal, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO journals (name, description, timezone)
		VALUES ($1, $2, $3)
		RETURNING `+journalColumns,
		journal.Name, journal.Description, journal.Timezone)
	created, err := scanJournal(row)
	if err != nil {
		r.logger.Error("failed to create journal", "name", journal.Name, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *journalRepository) ListJournals(ctx context.Context) ([]*entity.Journal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+journalColumns+` FROM journals ORDER BY created_at`)
	if err != nil {
		r.logger.Error("failed to list journals", "error", err)
		return nil, err
	}
	defer rows.Close()

	var journals []*entity.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, j)
	}
	return journals, rows.Err()
}

func (r *journalRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM journals WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check journal existence", "journal_id", id, "error", err)
		return false, err
	}
	return exists, nil
}
