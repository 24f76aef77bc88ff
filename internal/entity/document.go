package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document represents an attached file for data transfer between layers.
// The bytes live in a storage backend under StorageKey; only metadata is
// kept in the database.
type Document struct {
	ID          uuid.UUID `json:"id"`
	JournalID   uuid.UUID `json:"journal_id"`
	StorageKey  string    `json:"storage_key"`
	ContentHash []byte    `json:"content_hash"`
	Filename    string    `json:"filename"`
	FileExt     string    `json:"file_ext"`
	ContentType string    `json:"content_type"`
	FileSize    int       `json:"file_size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
