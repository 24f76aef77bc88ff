package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
)

type createJournalRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Timezone    string  `json:"timezone"`
}

func (a *App) createJournal(w http.ResponseWriter, r *http.Request) {
	var req createJournalRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	v := common.NewValidator()
	v.Field("name", req.Name, common.Required, common.MaxLengthRule(120))
	v.Field("timezone", req.Timezone, common.Timezone)
	if err := common.ValidateAndReturnError(v); err != nil {
		a.writeError(w, r, err)
		return
	}

	journal, err := a.Journals.CreateJournal(r.Context(), &entity.Journal{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Timezone:    req.Timezone,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, journal)
}

func (a *App) listJournals(w http.ResponseWriter, r *http.Request) {
	journals, err := a.Journals.ListJournals(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if journals == nil {
		journals = []*entity.Journal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": journals})
}

func (a *App) getJournal(w http.ResponseWriter, r *http.Request) {
	journalID, err := uuidParam(r, "journalID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	journal, err := a.Journals.GetByID(r.Context(), journalID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journal)
}

// exportJournal streams the journal's entries as an XLSX workbook.
// Dates are optional YYYY-MM-DD query params:
//   - only from -> from..today (inclusive)
//   - only to   -> beginning..to (inclusive)
//   - none      -> everything.
func (a *App) exportJournal(w http.ResponseWriter, r *http.Request) {
	journalID, err := uuidParam(r, "journalID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var fromPtr, toPtr *time.Time
	if fd := strings.TrimSpace(r.URL.Query().Get("from")); fd != "" {
		t, err := time.Parse("2006-01-02", fd)
		if err != nil {
			a.writeError(w, r, common.InvalidInputErrorf("from must be YYYY-MM-DD"))
			return
		}
		fromPtr = &t
	}
	if td := strings.TrimSpace(r.URL.Query().Get("to")); td != "" {
		t, err := time.Parse("2006-01-02", td)
		if err != nil {
			a.writeError(w, r, common.InvalidInputErrorf("to must be YYYY-MM-DD"))
			return
		}
		toPtr = &t
	}

	xlsx, err := a.Export.ExportJournalXLSX(r.Context(), journalID, fromPtr, toPtr)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "journal-"+journalID.String()+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
