package llm

import (
	"context"

	"github.com/daybook-app/daybook/constants"
)

// Result is the normalized shape we want from the LLM.
type Result struct {
	Title     string         `json:"title"`
	Formatted string         `json:"formatted"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GenerationParams are forwarded to the service unchanged.
type GenerationParams struct {
	Model       string  `json:"model,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// EnrichRequest carries one record's text plus the output contract.
type EnrichRequest struct {
	Text   string
	Kind   constants.EntityKind
	Schema map[string]any
	Params GenerationParams
}

// Enricher is the interface the worker pipeline depends on. The raw slice
// holds the validated JSON document exactly as persisted.
type Enricher interface {
	Enrich(ctx context.Context, req EnrichRequest) (Result, []byte /*rawJSON*/, error)
}
