// Package server exposes the JSON API: journals and their entries, document
// upload/download, and the enrichment job surface. Handlers stay thin; state
// transitions live in the repositories and the enqueuer.
package server

import (
	"log/slog"
	"net/http"

	"github.com/daybook-app/daybook/internal/async"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/export"
	"github.com/daybook-app/daybook/internal/repository"
	"github.com/daybook-app/daybook/internal/storage"
)

// App bundles everything the handlers reach. Fields are interfaces so tests
// can swap in fakes.
type App struct {
	Journals   repository.JournalRepository
	Notes      repository.NoteRepository
	Tasks      repository.TaskRepository
	Activities repository.ActivityRepository
	Moments    repository.MomentRepository
	Documents  repository.DocumentRepository

	Enqueuer async.Enqueuer
	Jobs     broker.Broker
	Storage  storage.Backend
	Export   *export.Service

	Logger *slog.Logger
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
