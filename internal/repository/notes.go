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

type NoteRepository interface {
	EnrichableRepository
	Create(ctx context.Context, note *entity.Note) (*entity.Note, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Note, error)
	ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type noteRepository struct {
	processingState
}

func NewNoteRepository(pool *pgxpool.Pool, logger *slog.Logger) NoteRepository {
	return &noteRepository{
		processingState: newProcessingState(pool, "notes", constants.KindNote, logger),
	}
}

const noteColumns = `id, journal_id, title, content, noted_at,
	processing_status, enrichment_data, enrichment_error,
	processing_started_at, processed_at, created_at, updated_at`

func scanNote(row pgx.Row) (*entity.Note, error) {
	var n entity.Note
	var status string
	err := row.Scan(&n.ID, &n.JournalID, &n.Title, &n.Content, &n.NotedAt,
		&status, &n.EnrichmentData, &n.EnrichmentError,
		&n.ProcessingStartedAt, &n.ProcessedAt, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.ProcessingStatus = constants.ProcessingStatus(status)
	return &n, nil
}

func (r *noteRepository) Create(ctx context.Context, note *entity.Note) (*entity.Note, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notes (journal_id, title, content, noted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+noteColumns,
		note.JournalID, note.Title, note.Content, note.NotedAt)
	created, err := scanNote(row)
	if err != nil {
		r.logger.Error("failed to create note", "journal_id", note.JournalID, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *noteRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	n, err := scanNote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get note", "note_id", id, "error", err)
		return nil, err
	}
	return n, nil
}

func (r *noteRepository) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Note, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE journal_id = $1 ORDER BY noted_at DESC`, journalID)
	if err != nil {
		r.logger.Error("failed to list notes", "journal_id", journalID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var notes []*entity.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *noteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete note", "note_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// EnrichmentSource joins the title and body so the model sees both.
func (r *noteRepository) EnrichmentSource(ctx context.Context, id uuid.UUID) (string, error) {
	var title *string
	var content string
	err := r.pool.QueryRow(ctx,
		`SELECT title, content FROM notes WHERE id = $1`, id).Scan(&title, &content)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load note text", "note_id", id, "error", err)
		return "", err
	}
	if title != nil && *title != "" {
		return *title + "\n\n" + content, nil
	}
	return content, nil
}
