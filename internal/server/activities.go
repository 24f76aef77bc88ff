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

type createActivityRequest struct {
	Name      string     `json:"name"`
	Notes     *string    `json:"notes,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (a *App) createActivity(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req createActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	v := common.NewValidator()
	v.Field("name", req.Name, common.Required, common.MaxLengthRule(200))
	if err := common.ValidateAndReturnError(v); err != nil {
		a.writeError(w, r, err)
		return
	}

	startedAt := time.Now().UTC()
	if req.StartedAt != nil {
		startedAt = req.StartedAt.UTC()
	}
	if req.EndedAt != nil && req.EndedAt.Before(startedAt) {
		a.writeError(w, r, common.InvalidInputErrorf("ended_at must not be before started_at"))
		return
	}

	activity, err := a.Activities.Create(r.Context(), &entity.Activity{
		JournalID: journalID,
		Name:      strings.TrimSpace(req.Name),
		Notes:     req.Notes,
		StartedAt: startedAt,
		EndedAt:   req.EndedAt,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	jobID, err := a.Enqueuer.Enqueue(r.Context(), constants.KindActivity, activity.ID)
	if err != nil {
		a.Logger.Warn("activity.enqueue_failed", "activity_id", activity.ID, "error", err)
		a.writeError(w, r, fmt.Errorf("activity %s saved but enrichment could not be queued: %w", activity.ID, err))
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		*entity.Activity
		JobID uuid.UUID `json:"job_id"`
	}{activity, jobID})
}

func (a *App) getActivity(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	activity, err := a.Activities.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (a *App) listActivities(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	activities, err := a.Activities.ListByJournal(r.Context(), journalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if activities == nil {
		activities = []*entity.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": activities})
}

func (a *App) deleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Activities.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
