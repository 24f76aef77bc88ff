package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
)

type createMomentRequest struct {
	Caption    string     `json:"caption"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
}

// Moments are captured as-is; they never enter the enrichment queue.
func (a *App) createMoment(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req createMomentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	v := common.NewValidator()
	v.Field("caption", req.Caption, common.Required, common.MaxLengthRule(280))
	if err := common.ValidateAndReturnError(v); err != nil {
		a.writeError(w, r, err)
		return
	}

	if (req.Latitude == nil) != (req.Longitude == nil) {
		a.writeError(w, r, common.InvalidInputErrorf("latitude and longitude must be provided together"))
		return
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		a.writeError(w, r, common.InvalidInputErrorf("latitude must be between -90 and 90"))
		return
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		a.writeError(w, r, common.InvalidInputErrorf("longitude must be between -180 and 180"))
		return
	}

	capturedAt := time.Now().UTC()
	if req.CapturedAt != nil {
		capturedAt = req.CapturedAt.UTC()
	}

	moment, err := a.Moments.Create(r.Context(), &entity.Moment{
		JournalID:  journalID,
		Caption:    strings.TrimSpace(req.Caption),
		CapturedAt: capturedAt,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, moment)
}

func (a *App) getMoment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	moment, err := a.Moments.GetByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, moment)
}

func (a *App) listMoments(w http.ResponseWriter, r *http.Request) {
	journalID, err := a.requireJournal(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	moments, err := a.Moments.ListByJournal(r.Context(), journalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if moments == nil {
		moments = []*entity.Moment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": moments})
}

func (a *App) deleteMoment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Moments.Delete(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
