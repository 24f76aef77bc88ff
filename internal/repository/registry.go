package repository

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daybook-app/daybook/constants"
)

// Registry wires one repository per record kind over a shared pool and
// exposes the enrichable subset keyed by kind for the pipeline.
type Registry struct {
	Journals   JournalRepository
	Notes      NoteRepository
	Tasks      TaskRepository
	Activities ActivityRepository
	Moments    MomentRepository
	Documents  DocumentRepository

	enrichable map[constants.EntityKind]EnrichableRepository
}

func NewRegistry(pool *pgxpool.Pool, logger *slog.Logger) *Registry {
	r := &Registry{
		Journals:   NewJournalRepository(pool, logger),
		Notes:      NewNoteRepository(pool, logger),
		Tasks:      NewTaskRepository(pool, logger),
		Activities: NewActivityRepository(pool, logger),
		Moments:    NewMomentRepository(pool, logger),
		Documents:  NewDocumentRepository(pool, logger),
	}
	r.enrichable = map[constants.EntityKind]EnrichableRepository{
		constants.KindNote:     r.Notes,
		constants.KindTask:     r.Tasks,
		constants.KindActivity: r.Activities,
	}
	return r
}

// Enrichable returns the repository for an enrichable kind.
func (r *Registry) Enrichable(kind constants.EntityKind) (EnrichableRepository, bool) {
	repo, ok := r.enrichable[kind]
	return repo, ok
}

// EnrichableRepos returns every enrichable repository, for sweep loops.
func (r *Registry) EnrichableRepos() []EnrichableRepository {
	return []EnrichableRepository{r.Notes, r.Tasks, r.Activities}
}
