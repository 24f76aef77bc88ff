package worker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/broker"
	"github.com/daybook-app/daybook/internal/repository"
)

func staleRepo(kind constants.EntityKind, ids ...uuid.UUID) *fakeRepo {
	repo := newFakeRepo(kind)
	for _, id := range ids {
		repo.status[id] = constants.StatusProcessing
		repo.text[id] = "stuck record"
		repo.stale = append(repo.stale, id)
	}
	return repo
}

func TestSweepOnceFailsStaleRecords(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	notes := staleRepo(constants.KindNote, a, b)
	store := newMemBroker()

	s := NewSweeper([]repository.EnrichableRepository{notes}, store, SweeperConfig{
		StaleAfter: 5 * time.Minute,
	}, testLogger(), nil)

	swept, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if swept != 2 {
		t.Errorf("swept = %d, want 2", swept)
	}
	for _, id := range []uuid.UUID{a, b} {
		if got := notes.statusOf(id); got != constants.StatusFailed {
			t.Errorf("status[%s] = %s, want FAILED", id, got)
		}
		if msg := notes.errMsg[id]; !strings.Contains(msg, "timed out") {
			t.Errorf("error message = %q", msg)
		}
	}
	if len(store.enqueued) != 0 {
		t.Error("default mode must not re-enqueue")
	}
}

func TestSweepOnceReenqueuesWhenEnabled(t *testing.T) {
	a := uuid.New()
	tasks := staleRepo(constants.KindTask, a)
	store := newMemBroker()

	s := NewSweeper([]repository.EnrichableRepository{tasks}, store, SweeperConfig{
		StaleAfter: 5 * time.Minute,
		Reenqueue:  true,
		JobTimeout: time.Minute,
		JobTTL:     time.Hour,
	}, testLogger(), nil)

	swept, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if swept != 1 {
		t.Errorf("swept = %d, want 1", swept)
	}
	if got := tasks.statusOf(a); got != constants.StatusPending {
		t.Errorf("status = %s, want PENDING", got)
	}
	if len(store.enqueued) != 1 || store.enqueued[0] != a {
		t.Errorf("enqueued = %v, want [%s]", store.enqueued, a)
	}
}

func TestSweepSkipsRecordsSettledMeanwhile(t *testing.T) {
	a := uuid.New()
	notes := newFakeRepo(constants.KindNote)
	// listed as stale, but a worker finished it between listing and reclaim
	notes.status[a] = constants.StatusCompleted
	notes.stale = []uuid.UUID{a}
	store := newMemBroker()

	s := NewSweeper([]repository.EnrichableRepository{notes}, store, SweeperConfig{
		StaleAfter: 5 * time.Minute,
	}, testLogger(), nil)

	swept, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if swept != 0 {
		t.Errorf("swept = %d, want 0", swept)
	}
	if got := notes.statusOf(a); got != constants.StatusCompleted {
		t.Errorf("status = %s, settled record must stay COMPLETED", got)
	}
}

func TestSweepReenqueueBrokerDownRollsBack(t *testing.T) {
	a := uuid.New()
	notes := staleRepo(constants.KindNote, a)
	store := newMemBroker()
	store.enqueueErr = broker.ErrUnavailable

	s := NewSweeper([]repository.EnrichableRepository{notes}, store, SweeperConfig{
		StaleAfter: 5 * time.Minute,
		Reenqueue:  true,
	}, testLogger(), nil)

	swept, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if swept != 0 {
		t.Errorf("swept = %d, want 0", swept)
	}
	if got := notes.statusOf(a); got != constants.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING back for the next pass", got)
	}
}

func TestSweepCountsTowardMetrics(t *testing.T) {
	a := uuid.New()
	notes := staleRepo(constants.KindNote, a)
	m := &Metrics{}

	s := NewSweeper([]repository.EnrichableRepository{notes}, newMemBroker(), SweeperConfig{
		StaleAfter: 5 * time.Minute,
	}, testLogger(), m)

	if _, err := s.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if got := m.SnapshotCounts().Swept; got != 1 {
		t.Errorf("swept counter = %d, want 1", got)
	}
}
