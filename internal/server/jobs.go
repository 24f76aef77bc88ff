package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/repository"
)

type enqueueResponse struct {
	JobID    uuid.UUID            `json:"job_id"`
	Kind     constants.EntityKind `json:"kind"`
	EntityID uuid.UUID            `json:"entity_id"`
}

// enrich submits a record for enrichment. Fresh records enqueue directly;
// records already in a terminal status go through the explicit re-enqueue
// path. Records that are queued or running answer 409.
func (a *App) enrich(kind constants.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "id")
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		jobID, err := a.Enqueuer.Enqueue(r.Context(), kind, id)
		if errors.Is(err, repository.ErrStateConflict) {
			jobID, err = a.Enqueuer.Reenqueue(r.Context(), kind, id)
		}
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, enqueueResponse{JobID: jobID, Kind: kind, EntityID: id})
	}
}

type jobResponse struct {
	Job     *broker.Job     `json:"job"`
	Outcome *broker.Outcome `json:"outcome,omitempty"`
}

func (a *App) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	job, outcome, err := a.Jobs.Lookup(r.Context(), jobID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if job == nil {
		a.writeError(w, r, common.NotFoundErrorf("job %s", jobID))
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{Job: job, Outcome: outcome})
}

func (a *App) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Jobs.Cancel(r.Context(), jobID); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "job_id": jobID})
}
