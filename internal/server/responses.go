package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/repository"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses. Anything unmapped
// is a 500 with a generic body; the detail goes to the log, not the client.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, common.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrStateConflict), errors.Is(err, common.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, broker.ErrUnavailable), errors.Is(err, common.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	default:
		a.Logger.Error("http.internal_error",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", common.RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.InvalidInputErrorf("invalid JSON body: %v", err)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.InvalidInputErrorf("%s must be a UUID", name)
	}
	return id, nil
}

// requireJournal resolves the {journalID} route param and confirms the
// journal exists before any nested create or list touches its table.
func (a *App) requireJournal(r *http.Request) (uuid.UUID, error) {
	journalID, err := uuidParam(r, "journalID")
	if err != nil {
		return uuid.Nil, err
	}
	ok, err := a.Journals.Exists(r.Context(), journalID)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, common.NotFoundErrorf("journal %s", journalID)
	}
	return journalID, nil
}
