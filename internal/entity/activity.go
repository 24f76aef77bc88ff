package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
)

// Activity represents a logged activity for data transfer between layers.
type Activity struct {
	ID        uuid.UUID  `json:"id"`
	JournalID uuid.UUID  `json:"journal_id"`
	Name      string     `json:"name"`
	Notes     *string    `json:"notes,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	ProcessingStatus    constants.ProcessingStatus `json:"processing_status"`
	EnrichmentData      json.RawMessage            `json:"enrichment_data,omitempty"`
	EnrichmentError     *string                    `json:"enrichment_error,omitempty"`
	ProcessingStartedAt *time.Time                 `json:"processing_started_at,omitempty"`
	ProcessedAt         *time.Time                 `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
