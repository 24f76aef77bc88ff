// Package export produces XLSX workbooks from journal contents.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/daybook-app/daybook/internal/repository"
)

// Service is a tiny façade over repositories that produces XLSX bytes for
// journal exports.
type Service struct {
	journals   repository.JournalRepository
	notes      repository.NoteRepository
	tasks      repository.TaskRepository
	activities repository.ActivityRepository
	moments    repository.MomentRepository
	logger     *slog.Logger
}

func NewService(
	journals repository.JournalRepository,
	notes repository.NoteRepository,
	tasks repository.TaskRepository,
	activities repository.ActivityRepository,
	moments repository.MomentRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		journals:   journals,
		notes:      notes,
		tasks:      tasks,
		activities: activities,
		moments:    moments,
		logger:     logger,
	}
}

// ExportJournalXLSX returns an XLSX workbook (as bytes) with one sheet per
// entry kind for the given journal and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every entry in the journal.
func (s *Service) ExportJournalXLSX(ctx context.Context, journalID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	journal, err := s.journals.GetByID(ctx, journalID)
	if err != nil {
		return nil, err
	}

	// Times render in the journal's timezone; a bad zone name falls back
	// to UTC rather than failing the export.
	loc, err := time.LoadLocation(journal.Timezone)
	if err != nil {
		loc = time.UTC
	}

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	f := excelize.NewFile()
	write := func(sheet string, col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	fmtTime := func(t time.Time) string {
		return t.In(loc).Format("2006-01-02 15:04")
	}

	total := 0

	const notesSheet = "Notes"
	if err := addSheet(f, notesSheet, []string{"Noted At", "Title", "Content", "Status", "Enriched Title"}); err != nil {
		return nil, err
	}
	notes, err := s.notes.ListByJournal(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	row := 2
	for _, n := range notes {
		if !within(n.NotedAt, fromDate, toDate) {
			continue
		}
		write(notesSheet, 1, row, fmtTime(n.NotedAt))
		write(notesSheet, 2, row, deref(n.Title))
		write(notesSheet, 3, row, truncate(n.Content, 140))
		write(notesSheet, 4, row, string(n.ProcessingStatus))
		write(notesSheet, 5, row, enrichedTitle(n.EnrichmentData))
		row++
		total++
	}
	_ = f.SetColWidth(notesSheet, "A", "A", 18)
	_ = f.SetColWidth(notesSheet, "B", "B", 28)
	_ = f.SetColWidth(notesSheet, "C", "C", 60)
	_ = f.SetColWidth(notesSheet, "D", "E", 20)

	const tasksSheet = "Tasks"
	if err := addSheet(f, tasksSheet, []string{"Created", "Due", "Title", "Priority", "Done", "Status"}); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByJournal(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	row = 2
	for _, t := range tasks {
		if !within(t.CreatedAt, fromDate, toDate) {
			continue
		}
		write(tasksSheet, 1, row, fmtTime(t.CreatedAt))
		if t.DueAt != nil {
			write(tasksSheet, 2, row, fmtTime(*t.DueAt))
		}
		write(tasksSheet, 3, row, t.Title)
		write(tasksSheet, 4, row, deref(t.Priority))
		if t.Done {
			write(tasksSheet, 5, row, "yes")
		} else {
			write(tasksSheet, 5, row, "no")
		}
		write(tasksSheet, 6, row, string(t.ProcessingStatus))
		row++
		total++
	}
	_ = f.SetColWidth(tasksSheet, "A", "B", 18)
	_ = f.SetColWidth(tasksSheet, "C", "C", 40)
	_ = f.SetColWidth(tasksSheet, "D", "F", 14)

	const activitiesSheet = "Activities"
	if err := addSheet(f, activitiesSheet, []string{"Started", "Ended", "Name", "Notes", "Status"}); err != nil {
		return nil, err
	}
	activities, err := s.activities.ListByJournal(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	row = 2
	for _, a := range activities {
		if !within(a.StartedAt, fromDate, toDate) {
			continue
		}
		write(activitiesSheet, 1, row, fmtTime(a.StartedAt))
		if a.EndedAt != nil {
			write(activitiesSheet, 2, row, fmtTime(*a.EndedAt))
		}
		write(activitiesSheet, 3, row, a.Name)
		write(activitiesSheet, 4, row, truncate(deref(a.Notes), 140))
		write(activitiesSheet, 5, row, string(a.ProcessingStatus))
		row++
		total++
	}
	_ = f.SetColWidth(activitiesSheet, "A", "B", 18)
	_ = f.SetColWidth(activitiesSheet, "C", "C", 32)
	_ = f.SetColWidth(activitiesSheet, "D", "D", 60)
	_ = f.SetColWidth(activitiesSheet, "E", "E", 14)

	const momentsSheet = "Moments"
	if err := addSheet(f, momentsSheet, []string{"Captured", "Caption", "Latitude", "Longitude"}); err != nil {
		return nil, err
	}
	moments, err := s.moments.ListByJournal(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("query moments: %w", err)
	}
	row = 2
	for _, m := range moments {
		if !within(m.CapturedAt, fromDate, toDate) {
			continue
		}
		write(momentsSheet, 1, row, fmtTime(m.CapturedAt))
		write(momentsSheet, 2, row, truncate(m.Caption, 140))
		if m.Latitude != nil {
			write(momentsSheet, 3, row, *m.Latitude)
		}
		if m.Longitude != nil {
			write(momentsSheet, 4, row, *m.Longitude)
		}
		row++
		total++
	}
	_ = f.SetColWidth(momentsSheet, "A", "A", 18)
	_ = f.SetColWidth(momentsSheet, "B", "B", 60)
	_ = f.SetColWidth(momentsSheet, "C", "D", 12)

	// Drop the workbook's default empty sheet and land on Notes.
	_ = f.DeleteSheet("Sheet1")
	if index, err := f.GetSheetIndex(notesSheet); err == nil {
		f.SetActiveSheet(index)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"journal_id", journalID.String(),
		"rows", total,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, headers []string) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(name, cell, h)
	}
	return nil
}

// within reports whether t falls inside the inclusive date window.
func within(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(to.Add(24*time.Hour)) {
		return false
	}
	return true
}

// enrichedTitle pulls the model-written title out of a completed record's
// enrichment document.
func enrichedTitle(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var doc struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return doc.Title
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
