// Package events publishes enrichment lifecycle notifications so other
// consumers (digest builders, search indexing) can react without polling the
// database. Publishing is best effort; the pipeline never blocks on it.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
)

// Event is one terminal enrichment outcome.
type Event struct {
	JobID      uuid.UUID                  `json:"job_id"`
	EntityKind constants.EntityKind       `json:"entity_kind"`
	EntityID   uuid.UUID                  `json:"entity_id"`
	Status     constants.ProcessingStatus `json:"status"`
	Error      string                     `json:"error,omitempty"`
	FinishedAt time.Time                  `json:"finished_at"`
}

// Publisher emits enrichment events. Implementations must be safe for use
// from multiple goroutines.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker list is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
