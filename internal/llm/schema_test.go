package llm

import (
	"strings"
	"testing"

	"github.com/daybook-app/daybook/constants"
)

func TestSchemaAcceptsWellFormedOutput(t *testing.T) {
	tests := []struct {
		name string
		kind constants.EntityKind
		doc  string
	}{
		{
			name: "note with tags and mood",
			kind: constants.KindNote,
			doc:  `{"title":"Quiet evening","formatted":"Read on the porch until dark.","metadata":{"tags":["reading"],"mood":"calm"}}`,
		},
		{
			name: "task with priority",
			kind: constants.KindTask,
			doc:  `{"title":"Renew passport","formatted":"- [ ] renew passport","metadata":{"priority":"High","due_hint":"before June"}}`,
		},
		{
			name: "activity with duration",
			kind: constants.KindActivity,
			doc:  `{"title":"Swim","formatted":"45 minutes at the pool.","metadata":{"category":"exercise","duration_minutes":45}}`,
		},
		{
			name: "metadata omitted entirely",
			kind: constants.KindNote,
			doc:  `{"title":"T","formatted":"F"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := BuildEnrichmentSchema(tt.kind)
			if err := ValidateAgainstSchema([]byte(tt.doc), schema); err != nil {
				t.Errorf("ValidateAgainstSchema: %v", err)
			}
		})
	}
}

func TestSchemaRejectsBadOutput(t *testing.T) {
	tests := []struct {
		name string
		kind constants.EntityKind
		doc  string
	}{
		{
			name: "missing title",
			kind: constants.KindNote,
			doc:  `{"formatted":"body only"}`,
		},
		{
			name: "empty formatted",
			kind: constants.KindNote,
			doc:  `{"title":"T","formatted":""}`,
		},
		{
			name: "unknown top-level key",
			kind: constants.KindNote,
			doc:  `{"title":"T","formatted":"F","confidence":0.9}`,
		},
		{
			name: "priority outside enum",
			kind: constants.KindTask,
			doc:  `{"title":"T","formatted":"F","metadata":{"priority":"urgent"}}`,
		},
		{
			name: "title too long",
			kind: constants.KindNote,
			doc:  `{"title":"` + strings.Repeat("x", 201) + `","formatted":"F"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := BuildEnrichmentSchema(tt.kind)
			if err := ValidateAgainstSchema([]byte(tt.doc), schema); err == nil {
				t.Error("want validation error, got nil")
			}
		})
	}
}
