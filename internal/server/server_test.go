package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/common"
	"github.com/daybook-app/daybook/internal/entity"
	"github.com/daybook-app/daybook/internal/export"
	"github.com/daybook-app/daybook/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// The fakes embed the repository interfaces so only the methods the routes
// under test touch need implementations.

type fakeJournalRepo struct {
	journals map[uuid.UUID]*entity.Journal
}

func (f *fakeJournalRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Journal, error) {
	j, ok := f.journals[id]
	if !ok {
		return nil, common.NotFoundErrorf("journal %s", id)
	}
	return j, nil
}

func (f *fakeJournalRepo) CreateJournal(ctx context.Context, j *entity.Journal) (*entity.Journal, error) {
	j.ID = uuid.New()
	j.CreatedAt = time.Now().UTC()
	j.UpdatedAt = j.CreatedAt
	f.journals[j.ID] = j
	return j, nil
}

func (f *fakeJournalRepo) ListJournals(ctx context.Context) ([]*entity.Journal, error) {
	out := make([]*entity.Journal, 0, len(f.journals))
	for _, j := range f.journals {
		out = append(out, j)
	}
	return out, nil
}

func (f *fakeJournalRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.journals[id]
	return ok, nil
}

type fakeNoteRepo struct {
	repository.NoteRepository
	notes map[uuid.UUID]*entity.Note
}

func (f *fakeNoteRepo) Create(ctx context.Context, n *entity.Note) (*entity.Note, error) {
	n.ID = uuid.New()
	n.ProcessingStatus = constants.StatusNotProcessed
	n.CreatedAt = time.Now().UTC()
	f.notes[n.ID] = n
	return n, nil
}

func (f *fakeNoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return n, nil
}

func (f *fakeNoteRepo) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Note, error) {
	var out []*entity.Note
	for _, n := range f.notes {
		if n.JournalID == journalID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNoteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.notes[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

type fakeTaskRepo struct {
	repository.TaskRepository
	tasks map[uuid.UUID]*entity.Task
}

func (f *fakeTaskRepo) Create(ctx context.Context, t *entity.Task) (*entity.Task, error) {
	t.ID = uuid.New()
	t.ProcessingStatus = constants.StatusNotProcessed
	t.CreatedAt = time.Now().UTC()
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return t, nil
}

func (f *fakeTaskRepo) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Task, error) {
	var out []*entity.Task
	for _, t := range f.tasks {
		if t.JournalID == journalID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) SetDone(ctx context.Context, id uuid.UUID, done bool) error {
	t, ok := f.tasks[id]
	if !ok {
		return common.ErrNotFound
	}
	t.Done = done
	return nil
}

type fakeActivityRepo struct {
	repository.ActivityRepository
	activities map[uuid.UUID]*entity.Activity
}

func (f *fakeActivityRepo) Create(ctx context.Context, a *entity.Activity) (*entity.Activity, error) {
	a.ID = uuid.New()
	a.ProcessingStatus = constants.StatusNotProcessed
	f.activities[a.ID] = a
	return a, nil
}

func (f *fakeActivityRepo) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Activity, error) {
	var out []*entity.Activity
	for _, a := range f.activities {
		if a.JournalID == journalID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeMomentRepo struct {
	repository.MomentRepository
	moments map[uuid.UUID]*entity.Moment
}

func (f *fakeMomentRepo) Create(ctx context.Context, m *entity.Moment) (*entity.Moment, error) {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	f.moments[m.ID] = m
	return m, nil
}

func (f *fakeMomentRepo) ListByJournal(ctx context.Context, journalID uuid.UUID) ([]*entity.Moment, error) {
	var out []*entity.Moment
	for _, m := range f.moments {
		if m.JournalID == journalID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeDocRepo struct {
	repository.DocumentRepository
	docs   map[uuid.UUID]*entity.Document
	byHash map[string]uuid.UUID
}

func hashKey(journalID uuid.UUID, hash []byte) string {
	return fmt.Sprintf("%s:%x", journalID, hash)
}

func (f *fakeDocRepo) UpsertByHash(ctx context.Context, d *entity.Document) (*entity.Document, bool, error) {
	if id, ok := f.byHash[hashKey(d.JournalID, d.ContentHash)]; ok {
		return f.docs[id], true, nil
	}
	d.ID = uuid.New()
	d.UploadedAt = time.Now().UTC()
	f.docs[d.ID] = d
	f.byHash[hashKey(d.JournalID, d.ContentHash)] = d.ID
	return d, false, nil
}

func (f *fakeDocRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocRepo) Delete(ctx context.Context, id uuid.UUID) error {
	d, ok := f.docs[id]
	if !ok {
		return common.ErrNotFound
	}
	delete(f.byHash, hashKey(d.JournalID, d.ContentHash))
	delete(f.docs, id)
	return nil
}

type enqCall struct {
	kind constants.EntityKind
	id   uuid.UUID
}

type fakeEnqueuer struct {
	jobID        uuid.UUID
	enqueueErr   error
	reenqueueErr error
	enqueued     []enqCall
	reenqueued   []enqCall
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, kind constants.EntityKind, id uuid.UUID) (uuid.UUID, error) {
	if f.enqueueErr != nil {
		return uuid.Nil, f.enqueueErr
	}
	f.enqueued = append(f.enqueued, enqCall{kind, id})
	return f.jobID, nil
}

func (f *fakeEnqueuer) Reenqueue(ctx context.Context, kind constants.EntityKind, id uuid.UUID) (uuid.UUID, error) {
	if f.reenqueueErr != nil {
		return uuid.Nil, f.reenqueueErr
	}
	f.reenqueued = append(f.reenqueued, enqCall{kind, id})
	return f.jobID, nil
}

type fakeJobStore struct {
	broker.Broker
	jobs      map[uuid.UUID]*broker.Job
	outcomes  map[uuid.UUID]*broker.Outcome
	cancelled []uuid.UUID
}

func (f *fakeJobStore) Lookup(ctx context.Context, jobID uuid.UUID) (*broker.Job, *broker.Outcome, error) {
	return f.jobs[jobID], f.outcomes[jobID], nil
}

func (f *fakeJobStore) Cancel(ctx context.Context, jobID uuid.UUID) error {
	if _, ok := f.jobs[jobID]; !ok {
		return common.ErrNotFound
	}
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

type testEnv struct {
	app      *App
	handler  http.Handler
	journal  *entity.Journal
	journals *fakeJournalRepo
	notes    *fakeNoteRepo
	tasks    *fakeTaskRepo
	enqueuer *fakeEnqueuer
	jobs     *fakeJobStore
	storage  *memStorage
	docs     *fakeDocRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()

	journal := &entity.Journal{ID: uuid.New(), Name: "Daily", Timezone: "UTC"}
	journals := &fakeJournalRepo{journals: map[uuid.UUID]*entity.Journal{journal.ID: journal}}
	notes := &fakeNoteRepo{notes: map[uuid.UUID]*entity.Note{}}
	tasks := &fakeTaskRepo{tasks: map[uuid.UUID]*entity.Task{}}
	activities := &fakeActivityRepo{activities: map[uuid.UUID]*entity.Activity{}}
	moments := &fakeMomentRepo{moments: map[uuid.UUID]*entity.Moment{}}
	docs := &fakeDocRepo{docs: map[uuid.UUID]*entity.Document{}, byHash: map[string]uuid.UUID{}}
	enq := &fakeEnqueuer{jobID: uuid.New()}
	jobs := &fakeJobStore{jobs: map[uuid.UUID]*broker.Job{}, outcomes: map[uuid.UUID]*broker.Outcome{}}
	store := newMemStorage()

	app := &App{
		Journals:   journals,
		Notes:      notes,
		Tasks:      tasks,
		Activities: activities,
		Moments:    moments,
		Documents:  docs,
		Enqueuer:   enq,
		Jobs:       jobs,
		Storage:    store,
		Export:     export.NewService(journals, notes, tasks, activities, moments, logger),
		Logger:     logger,
	}

	return &testEnv{
		app:      app,
		handler:  NewRouter(app),
		journal:  journal,
		journals: journals,
		notes:    notes,
		tasks:    tasks,
		enqueuer: enq,
		jobs:     jobs,
		storage:  store,
		docs:     docs,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateJournal(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/journals", map[string]string{
		"name": "Travel", "timezone": "Europe/Lisbon",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]any](t, rec)
	if body["name"] != "Travel" {
		t.Errorf("name = %v, want Travel", body["name"])
	}
	if body["timezone"] != "Europe/Lisbon" {
		t.Errorf("timezone = %v", body["timezone"])
	}

	for name, req := range map[string]map[string]string{
		"missing name": {"timezone": "UTC"},
		"bad timezone": {"name": "x", "timezone": "Mars/Olympus"},
	} {
		rec := env.do(t, http.MethodPost, "/v1/journals", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestCreateNoteEnqueuesEnrichment(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/journals/"+env.journal.ID.String()+"/notes", map[string]string{
		"content": "Long call with the landlord about the lease.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]any](t, rec)
	if body["processing_status"] != string(constants.StatusNotProcessed) {
		t.Errorf("processing_status = %v, want NOT_PROCESSED", body["processing_status"])
	}
	if body["job_id"] != env.enqueuer.jobID.String() {
		t.Errorf("job_id = %v, want %s", body["job_id"], env.enqueuer.jobID)
	}
	if len(env.enqueuer.enqueued) != 1 || env.enqueuer.enqueued[0].kind != constants.KindNote {
		t.Fatalf("enqueued = %+v, want one note", env.enqueuer.enqueued)
	}
	if len(env.notes.notes) != 1 {
		t.Fatalf("stored notes = %d, want 1", len(env.notes.notes))
	}
}

func TestCreateNoteBrokerDown(t *testing.T) {
	env := newTestEnv(t)
	env.enqueuer.enqueueErr = fmt.Errorf("enqueue note: %w", broker.ErrUnavailable)

	rec := env.do(t, http.MethodPost, "/v1/journals/"+env.journal.ID.String()+"/notes", map[string]string{
		"content": "this note should still be saved",
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503: %s", rec.Code, rec.Body.String())
	}
	// The record survives the queue outage.
	if len(env.notes.notes) != 1 {
		t.Fatalf("stored notes = %d, want 1", len(env.notes.notes))
	}
	for _, n := range env.notes.notes {
		if n.ProcessingStatus != constants.StatusNotProcessed {
			t.Errorf("status = %s, want NOT_PROCESSED", n.ProcessingStatus)
		}
	}
}

func TestCreateNoteUnknownJournal(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/v1/journals/"+uuid.NewString()+"/notes", map[string]string{
		"content": "orphan",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if len(env.notes.notes) != 0 {
		t.Fatalf("note was created for a missing journal")
	}
}

func TestCreateTaskCanonicalizesPriority(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/journals/"+env.journal.ID.String()+"/tasks", map[string]string{
		"title": "Renew passport", "priority": "urgent",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]any](t, rec)
	if body["priority"] != "High" {
		t.Errorf("priority = %v, want High", body["priority"])
	}

	rec = env.do(t, http.MethodPost, "/v1/journals/"+env.journal.ID.String()+"/tasks", map[string]string{
		"title": "x", "priority": "whenever-ish",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown priority: status = %d, want 400", rec.Code)
	}
}

func TestSetTaskDone(t *testing.T) {
	env := newTestEnv(t)
	task, _ := env.tasks.Create(context.Background(), &entity.Task{JournalID: env.journal.ID, Title: "Pack boxes"})

	rec := env.do(t, http.MethodPatch, "/v1/tasks/"+task.ID.String()+"/done", map[string]bool{"done": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[map[string]any](t, rec)
	if body["done"] != true {
		t.Errorf("done = %v, want true", body["done"])
	}
}

func TestCreateMomentSkipsEnrichment(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/journals/"+env.journal.ID.String()+"/moments", map[string]any{
		"caption": "First snow", "latitude": 59.33, "longitude": 18.07,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(env.enqueuer.enqueued) != 0 {
		t.Fatalf("moment create reached the enqueuer: %+v", env.enqueuer.enqueued)
	}

	for name, req := range map[string]map[string]any{
		"caption required": {"latitude": 1.0, "longitude": 1.0},
		"latitude alone":   {"caption": "x", "latitude": 10.0},
		"latitude range":   {"caption": "x", "latitude": 91.0, "longitude": 0.0},
		"longitude range":  {"caption": "x", "latitude": 0.0, "longitude": -181.0},
	} {
		rec := env.do(t, http.MethodPost, "/v1/journals/"+env.journal.ID.String()+"/moments", req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestEnrichFallsBackToReenqueue(t *testing.T) {
	env := newTestEnv(t)
	note, _ := env.notes.Create(context.Background(), &entity.Note{JournalID: env.journal.ID, Content: "x"})

	// Already-terminal records conflict on the fresh-enqueue path and go
	// through re-enqueue instead.
	env.enqueuer.enqueueErr = fmt.Errorf("%w: note is FAILED", repository.ErrStateConflict)

	rec := env.do(t, http.MethodPost, "/v1/notes/"+note.ID.String()+"/enrich", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if len(env.enqueuer.reenqueued) != 1 {
		t.Fatalf("reenqueued = %+v, want one call", env.enqueuer.reenqueued)
	}
}

func TestEnrichConflictsWhileRunning(t *testing.T) {
	env := newTestEnv(t)
	note, _ := env.notes.Create(context.Background(), &entity.Note{JournalID: env.journal.ID, Content: "x"})

	env.enqueuer.enqueueErr = fmt.Errorf("%w: note is PROCESSING", repository.ErrStateConflict)
	env.enqueuer.reenqueueErr = fmt.Errorf("%w: note is PROCESSING, not terminal", repository.ErrStateConflict)

	rec := env.do(t, http.MethodPost, "/v1/notes/"+note.ID.String()+"/enrich", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t)
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &broker.Job{ID: jobID, Queue: "enrichment", EntityKind: constants.KindNote}
	env.jobs.outcomes[jobID] = &broker.Outcome{Status: constants.StatusCompleted, FinishedAt: time.Now().UTC()}

	rec := env.do(t, http.MethodGet, "/v1/jobs/"+jobID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[jobResponse](t, rec)
	if body.Job == nil || body.Job.ID != jobID {
		t.Fatalf("job = %+v, want id %s", body.Job, jobID)
	}
	if body.Outcome == nil || body.Outcome.Status != constants.StatusCompleted {
		t.Fatalf("outcome = %+v, want COMPLETED", body.Outcome)
	}

	rec = env.do(t, http.MethodGet, "/v1/jobs/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown job: status = %d, want 404", rec.Code)
	}
}

func TestCancelJob(t *testing.T) {
	env := newTestEnv(t)
	jobID := uuid.New()
	env.jobs.jobs[jobID] = &broker.Job{ID: jobID}

	rec := env.do(t, http.MethodDelete, "/v1/jobs/"+jobID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(env.jobs.cancelled) != 1 || env.jobs.cancelled[0] != jobID {
		t.Fatalf("cancelled = %v, want [%s]", env.jobs.cancelled, jobID)
	}
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/v1/journals/"+e.journal.ID.String()+"/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadDocumentDedupes(t *testing.T) {
	env := newTestEnv(t)
	content := []byte("%PDF-1.4 lease agreement")

	rec := env.upload(t, "lease.pdf", content)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first upload: status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	first := decodeBody[entity.Document](t, rec)
	if first.FileSize != len(content) {
		t.Errorf("file_size = %d, want %d", first.FileSize, len(content))
	}

	// Same bytes again: the existing row comes back and nothing new is stored.
	rec = env.upload(t, "lease-copy.pdf", content)
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate upload: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	second := decodeBody[entity.Document](t, rec)
	if second.ID != first.ID {
		t.Errorf("duplicate got id %s, want %s", second.ID, first.ID)
	}
	if len(env.storage.objects) != 1 {
		t.Fatalf("stored blobs = %d, want 1", len(env.storage.objects))
	}

	// Download round trip.
	rec = env.do(t, http.MethodGet, "/v1/documents/"+first.ID.String()+"/content", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: status = %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), content) {
		t.Fatalf("downloaded %d bytes, want original content", rec.Body.Len())
	}
}

func TestUploadDocumentRejectsExtension(t *testing.T) {
	env := newTestEnv(t)

	rec := env.upload(t, "payload.exe", []byte("MZ"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if len(env.storage.objects) != 0 {
		t.Fatalf("rejected upload must not reach storage")
	}
}

func TestDeleteDocumentRemovesBlob(t *testing.T) {
	env := newTestEnv(t)
	rec := env.upload(t, "receipt.png", []byte{0x89, 'P', 'N', 'G', 1, 2, 3})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: status = %d", rec.Code)
	}
	doc := decodeBody[entity.Document](t, rec)

	rec = env.do(t, http.MethodDelete, "/v1/documents/"+doc.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", rec.Code)
	}
	if len(env.storage.objects) != 0 {
		t.Fatalf("blob survived the delete")
	}
}

func TestExportJournalRoute(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.notes.Create(context.Background(), &entity.Note{
		JournalID: env.journal.ID, Content: "exported", NotedAt: time.Now().UTC(),
	})

	rec := env.do(t, http.MethodGet, "/v1/journals/"+env.journal.ID.String()+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type = %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("empty workbook body")
	}

	rec = env.do(t, http.MethodGet, "/v1/journals/"+env.journal.ID.String()+"/export?from=March-1st", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status = %d, want 400", rec.Code)
	}
}
