package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
)

type createNoteRequest struct {
	Title   *string    `json:"title,omitempty"`
	Content string     `json:"content"`
	NotedAt *time.Time `json:"noted_at,omitempty"`
}

func (a *App) createNote(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req createNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	v := common.NewValidator()
	v.Field("content", req.Content, common.Required)
	v.Field("title", req.Title, common.MaxLengthRule(200))
	if err := common.ValidateAndReturnError(v); err != nil {
		a.writeError(w, r, err)
		return
	}

	notedAt := time.Now().UTC()
	if req.NotedAt != nil {
		notedAt = req.NotedAt.UTC()
	}

	note, err := a.Notes.Create(r.Context(), &entity.Note{
		JournalID: journalID,
		Title:     req.Title,
		Content:   strings.TrimSpace(req.Content),
		NotedAt:   notedAt,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	jobID, err := a.Enqueuer.Enqueue(r.Context(), constants.KindNote, note.ID)
	if err != nil {
		// The note exists but never reached the queue; it stays
		// NOT_PROCESSED so the client can retry via the enrich endpoint.
		a.Logger.Warn("note.enqueue_failed", "note_id", note.ID, "error", err)
		a.writeError(w, r, fmt.Errorf("note %s saved but enrichment could not be queued: %w", note.ID, err))
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		*entity.Note
		JobID uuid.UUID `json:"job_id"`
	}{note, jobID})
}

func (a *App) getNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	note, err := a.Notes.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (a *App) listNotes(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	notes, err := a.Notes.ListByJournal(r.Context(), journalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if notes == nil {
		notes = []*entity.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": notes})
}

func (a *App) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Notes.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
