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

type TaskRepository interface {
	EnrichableRepository
	Create(ctx context.Context, task *entity.Task) (*entity.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Task, error)
	SetDone(ctx context.Context, id uuid.UUID, done bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskRepository struct {
	processingState
}

func NewTaskRepository(pool *pgxpool.Pool, logger *slog.Logger) TaskRepository {
	return &taskRepository{
		processingState: newProcessingState(pool, "tasks", constants.KindTask, logger),
	}
}

const taskColumns = `id, journal_id, title, details, due_at, priority, done,
	processing_status, enrichment_data, enrichment_error,
	processing_started_at, processed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*entity.Task, error) {
	var t entity.Task
	var status string
	err := row.Scan(&t.ID, &t.JournalID, &t.Title, &t.Details, &t.DueAt, &t.Priority, &t.Done,
		&status, &t.EnrichmentData, &t.EnrichmentError,
		&t.ProcessingStartedAt, &t.ProcessedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ProcessingStatus = constants.ProcessingStatus(status)
	return &t, nil
}

func (r *taskRepository) Create(ctx context.Context, task *entity.Task) (*entity.Task, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (journal_id, title, details, due_at, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		task.JournalID, task.Title, task.Details, task.DueAt, task.Priority)
	created, err := scanTask(row)
	if err != nil {
		r.logger.Error("failed to create task", "journal_id", task.JournalID, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get task", "task_id", id, "error", err)
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE journal_id = $1 ORDER BY created_at DESC`, journalID)
	if err != nil {
		r.logger.Error("failed to list tasks", "journal_id", journalID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) SetDone(ctx context.Context, id uuid.UUID, done bool) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE tasks SET done = $1, updated_at = now() WHERE id = $2`, done, id)
	if err != nil {
		r.logger.Error("failed to update task", "task_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete task", "task_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// EnrichmentSource joins the title and details so the model sees both.
func (r *taskRepository) EnrichmentSource(ctx context.Context, id uuid.UUID) (string, error) {
	var title string
	var details *string
	err := r.pool.QueryRow(ctx,
		`SELECT title, details FROM tasks WHERE id = $1`, id).Scan(&title, &details)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load task text", "task_id", id, "error", err)
		return "", err
	}
	if details != nil && *details != "" {
		return title + "\n\n" + *details, nil
	}
	return title, nil
}
