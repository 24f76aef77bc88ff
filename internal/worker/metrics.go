package worker

import (
	"sync/atomic"
	"time"
)

// Snapshot is a point-in-time copy of the worker counters.
type Snapshot struct {
	Claimed   uint64
	Completed uint64
	Failed    uint64
	Skipped   uint64
	Swept     uint64
}

// Metrics counts job outcomes for the lifetime of the process. Logged on a
// ticker from main; there is no metrics endpoint.
type Metrics struct {
	claimed   atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
	swept     atomic.Uint64
}

func (m *Metrics) IncClaimed()   { m.claimed.Add(1) }
func (m *Metrics) IncCompleted() { m.completed.Add(1) }
func (m *Metrics) IncFailed()    { m.failed.Add(1) }
func (m *Metrics) IncSkipped()   { m.skipped.Add(1) }
func (m *Metrics) AddSwept(n uint64) {
	m.swept.Add(n)
}

func (m *Metrics) SnapshotCounts() Snapshot {
	return Snapshot{
		Claimed:   m.claimed.Load(),
		Completed: m.completed.Load(),
		Failed:    m.failed.Load(),
		Skipped:   m.skipped.Load(),
		Swept:     m.swept.Load(),
	}
}

// Every runs f on a ticker until the returned stop function is called.
func Every(d time.Duration, f func()) func() {
	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				f()
			}
		}
	}()
	return func() { close(stop) }
}
