package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/constants"
)

// Task represents a to-do item for data transfer between layers.
type Task struct {
	ID        uuid.UUID  `json:"id"`
	JournalID uuid.UUID  `json:"journal_id"`
	Title     string     `json:"title"`
	Details   *string    `json:"details,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	Priority  *string    `json:"priority,omitempty"`
	Done      bool       `json:"done"`

	ProcessingStatus    constants.ProcessingStatus `json:"processing_status"`
	EnrichmentData      json.RawMessage            `json:"enrichment_data,omitempty"`
	EnrichmentError     *string                    `json:"enrichment_error,omitempty"`
	ProcessingStartedAt *time.Time                 `json:"processing_started_at,omitempty"`
	ProcessedAt         *time.Time                 `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
