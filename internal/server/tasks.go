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

type createTaskRequest struct {
	Title    string     `json:"title"`
	Details  *string    `json:"details,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	Priority string     `json:"priority,omitempty"`
}

func (a *App) createTask(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	v := common.NewValidator()
	v.Field("title", req.Title, common.Required, common.MaxLengthRule(200))
	if err := common.ValidateAndReturnError(v); err != nil {
		a.writeError(w, r, err)
		return
	}

	var priority *string
	if req.Priority != "" {
		p, ok := constants.CanonicalizePriority(req.Priority)
		if !ok {
			a.writeError(w, r, common.InvalidInputErrorf(
				"priority %q is not one of %s", req.Priority, strings.Join(constants.PrioritiesAsStrings(), ", ")))
			return
		}
		s := string(p)
		priority = &s
	}

	task, err := a.Tasks.Create(r.Context(), &entity.Task{
		JournalID: journalID,
		Title:     strings.TrimSpace(req.Title),
		Details:   req.Details,
		DueAt:     req.DueAt,
		Priority:  priority,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	jobID, err := a.Enqueuer.Enqueue(r.Context(), constants.KindTask, task.ID)
	if err != nil {
		a.Logger.Warn("task.enqueue_failed", "task_id", task.ID, "error", err)
		a.writeError(w, r, fmt.Errorf("task %s saved but enrichment could not be queued: %w", task.ID, err))
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		*entity.Task
		JobID uuid.UUID `json:"job_id"`
	}{task, jobID})
}

func (a *App) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	task, err := a.Tasks.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *App) listTasks(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	tasks, err := a.Tasks.ListByJournal(r.Context(), journalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*entity.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tasks})
}

type setDoneRequest struct {
	Done bool `json:"done"`
}

func (a *App) setTaskDone(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req setDoneRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Tasks.SetDone(r.Context(), id, req.Done); err != nil {
		a.writeError(w, r, err)
		return
	}
	task, err := a.Tasks.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (a *App) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Tasks.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
