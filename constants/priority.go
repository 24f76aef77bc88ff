package constants

import (
	"strings"
)

// Priority is the canonical urgency level the enrichment service assigns
// to tasks. Model output is free-form, so raw values get canonicalized
// before they are stored.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var allPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
}

// PrioritiesAsStrings returns the canonical priority values for schema enums.
func PrioritiesAsStrings() []string {
	result := make([]string, len(allPriorities))
	for i, p := range allPriorities {
		result[i] = string(p)
	}
	return result
}

// CanonicalizePriority maps a raw model-produced value onto the canonical
// set. Unknown values fall back to Medium with ok=false.
func CanonicalizePriority(input string) (Priority, bool) {
	if input == "" {
		return PriorityMedium, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Priority{
		"urgent":    PriorityHigh,
		"critical":  PriorityHigh,
		"asap":      PriorityHigh,
		"important": PriorityHigh,
		"normal":    PriorityMedium,
		"default":   PriorityMedium,
		"someday":   PriorityLow,
		"minor":     PriorityLow,
		"trivial":   PriorityLow,
	}

	if p, ok := synonyms[normalized]; ok {
		return p, true
	}

	// check if it matches any canonical value
	for _, p := range allPriorities {
		if normalized == strings.ToLower(string(p)) {
			return p, true
		}
	}

	return PriorityMedium, false
}
