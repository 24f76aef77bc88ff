package constants

// ProcessingStatus is the canonical enrichment status for enrichable records.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusNotProcessed ProcessingStatus = "NOT_PROCESSED" // never enqueued
	StatusPending      ProcessingStatus = "PENDING"       // enqueued, waiting for a worker
	StatusProcessing   ProcessingStatus = "PROCESSING"    // claimed by a worker
	StatusCompleted    ProcessingStatus = "COMPLETED"     // terminal: enrichment stored
	StatusFailed       ProcessingStatus = "FAILED"        // terminal: error recorded
	StatusSkipped      ProcessingStatus = "SKIPPED"       // terminal: job no longer relevant
)

// Terminal reports whether s is an end state of the enrichment lifecycle.
func (s ProcessingStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// transitions lists the legal forward edges. The only way back into
// PENDING from a terminal status is an explicit re-enqueue, which is
// modelled here as its own edge.
var transitions = map[ProcessingStatus][]ProcessingStatus{
	StatusNotProcessed: {StatusPending},
	StatusPending:      {StatusProcessing},
	StatusProcessing:   {StatusCompleted, StatusFailed, StatusSkipped},
	StatusCompleted:    {StatusPending},
	StatusFailed:       {StatusPending},
	StatusSkipped:      {StatusPending},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to ProcessingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseProcessingStatus validates a raw string against the known set.
func ParseProcessingStatus(input string) (ProcessingStatus, bool) {
	switch s := ProcessingStatus(input); s {
	case StatusNotProcessed, StatusPending, StatusProcessing,
		StatusCompleted, StatusFailed, StatusSkipped:
		return s, true
	}
	return "", false
}
