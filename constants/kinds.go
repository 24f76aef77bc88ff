package constants

import (
	"strings"
)

// EntityKind names a record type that can flow through the enrichment queue.
type EntityKind string

const (
	KindNote     EntityKind = "note"
	KindTask     EntityKind = "task"
	KindActivity EntityKind = "activity"
	KindMoment   EntityKind = "moment"
	KindDocument EntityKind = "document"
)

// DefaultQueue is the broker queue enrichment jobs go to unless overridden.
const DefaultQueue = "enrichment"

var enrichableKinds = []EntityKind{
	KindNote,
	KindTask,
	KindActivity,
}

// Enrichable reports whether records of this kind carry free text that the
// enrichment pipeline knows how to process.
func (k EntityKind) Enrichable() bool {
	for _, e := range enrichableKinds {
		if k == e {
			return true
		}
	}
	return false
}

// EnrichableKinds returns the kinds the pipeline processes, as strings.
func EnrichableKinds() []string {
	result := make([]string, len(enrichableKinds))
	for i, k := range enrichableKinds {
		result[i] = string(k)
	}
	return result
}

// ParseEntityKind canonicalizes a raw kind string ("Note", "tasks", ...).
func ParseEntityKind(input string) (EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "note", "notes":
		return KindNote, true
	case "task", "tasks":
		return KindTask, true
	case "activity", "activities":
		return KindActivity, true
	case "moment", "moments":
		return KindMoment, true
	case "document", "documents":
		return KindDocument, true
	}
	return "", false
}
