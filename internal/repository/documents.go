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

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByJournalAndHash(ctx context.Context, journalID uuid.UUID, hash []byte) (*entity.Document, error)
	Create(ctx context.Context, doc *entity.Document) (*entity.Document, error)
	// UpsertByHash returns the existing document when the same bytes were
	// already uploaded to this journal. The bool reports whether it existed.
	UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error)
	ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	return &documentRepository{
		pool:   pool,
		logger: logger,
	}
}

const documentColumns = `id, journal_id, storage_key, content_hash, filename,
	file_ext, content_type, file_size, uploaded_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.JournalID, &d.StorageKey, &d.ContentHash, &d.Filename,
		&d.FileExt, &d.ContentType, &d.FileSize, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document", "document_id", id, "error", err)
		return nil, err
	}
	return d, nil
}

func (r *documentRepository) GetByJournalAndHash(ctx context.Context, journalID uuid.UUID, hash []byte) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE journal_id = $1 AND content_hash = $2`,
		journalID, hash)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document by hash", "journal_id", journalID, "error", err)
		return nil, err
	}
	return d, nil
}

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) (*entity.Document, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO documents (journal_id, storage_key, content_hash, filename, file_ext, content_type, file_size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+documentColumns,
		doc.JournalID, doc.StorageKey, doc.ContentHash, doc.Filename,
		doc.FileExt, doc.ContentType, doc.FileSize, doc.UploadedAt)
	created, err := scanDocument(row)
	if err != nil {
		r.logger.Error("failed to create document", "journal_id", doc.JournalID, "filename", doc.Filename, "error", err)
		return nil, err
	}
	return created, nil
}

func (r *documentRepository) UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	if existing, err := r.GetByJournalAndHash(ctx, doc.JournalID, doc.ContentHash); err == nil {
		return existing, true, nil
	}
	created, err := r.Create(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	return created, false, nil
}

func (r *documentRepository) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE journal_id = $1 ORDER BY uploaded_at DESC`, journalID)
	if err != nil {
		r.logger.Error("failed to list documents", "journal_id", journalID, "error", err)
		return nil, err
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete document", "document_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
