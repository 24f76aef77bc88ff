package entity

import (
	"time"

	"github.com/google/uuid"
)

// Moment represents a lightweight timestamped capture for data transfer
// between layers. Moments are not enriched.
type Moment struct {
	ID         uuid.UUID `json:"id"`
	JournalID  uuid.UUID `json:"journal_id"`
	Caption    string    `json:"caption"`
	CapturedAt time.Time `json:"captured_at"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
