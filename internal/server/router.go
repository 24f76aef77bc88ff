package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/common"
)

// NewRouter builds the router with the standard middleware stack.
func NewRouter(app *App) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(app.Logger))
	r.Use(middleware.Recoverer)
	RegisterRoutes(r, app)
	return r
}

func RegisterRoutes(r chi.Router, app *App) {
	r.Get("/healthz", app.health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/journals", func(r chi.Router) {
			r.Post("/", app.createJournal)
			r.Get("/", app.listJournals)
			r.Route("/{journalID}", func(r chi.Router) {
				r.Get("/", app.getJournal)
				r.Get("/export", app.exportJournal)
				r.Post("/notes", app.createNote)
				r.Get("/notes", app.listNotes)
				r.Post("/tasks", app.createTask)
				r.Get("/tasks", app.listTasks)
				r.Post("/activities", app.createActivity)
				r.Get("/activities", app.listActivities)
				r.Post("/moments", app.createMoment)
				r.Get("/moments", app.listMoments)
				r.Post("/documents", app.uploadDocument)
				r.Get("/documents", app.listDocuments)
			})
		})

		r.Route("/notes/{id}", func(r chi.Router) {
			r.Get("/", app.getNote)
			r.Delete("/", app.deleteNote)
			r.Post("/enrich", app.enrich(constants.KindNote))
		})
		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", app.getTask)
			r.Patch("/done", app.setTaskDone)
			r.Delete("/", app.deleteTask)
			r.Post("/enrich", app.enrich(constants.KindTask))
		})
		r.Route("/activities/{id}", func(r chi.Router) {
			r.Get("/", app.getActivity)
			r.Delete("/", app.deleteActivity)
			r.Post("/enrich", app.enrich(constants.KindActivity))
		})
		r.Route("/moments/{id}", func(r chi.Router) {
			r.Get("/", app.getMoment)
			r.Delete("/", app.deleteMoment)
		})
		r.Route("/documents/{id}", func(r chi.Router) {
			r.Get("/", app.getDocument)
			r.Get("/content", app.downloadDocument)
			r.Delete("/", app.deleteDocument)
		})

		r.Route("/jobs/{id}", func(r chi.Router) {
			r.Get("/", app.getJob)
			r.Delete("/", app.cancelJob)
		})
	})
}

// requestID stamps every request with an id that handlers and repositories
// pick up from the context.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), rid)))
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http.request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed_ms", time.Since(start).Milliseconds(),
				"request_id", common.RequestIDFromContext(r.Context()),
			)
		})
	}
}
