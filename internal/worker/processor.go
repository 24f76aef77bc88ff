package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/daybook-app/daybook/constants"
	"github.com/daybook-app/daybook/internal/llm"
	"github.com/daybook-app/daybook/internal/pipeline"
)

// Processor runs one record's text through the enrichment service under the
// shared rate gate and retry policy. It knows nothing about jobs or status
// columns; that is the worker's business.
type Processor struct {
	enricher llm.Enricher
	policy   pipeline.Policy
	gate     pipeline.Gate
	params   llm.GenerationParams
	logger   *slog.Logger
}

func NewProcessor(enricher llm.Enricher, policy pipeline.Policy, gate pipeline.Gate, params llm.GenerationParams, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		enricher: enricher,
		policy:   policy,
		gate:     gate,
		params:   params,
		logger:   logger,
	}
}

// Process returns the enrichment result plus the validated document that gets
// persisted on the record. The error, when non-nil, is already classified:
// a RetryExhaustedError, a fatal pipeline error, or the context's own error.
func (p *Processor) Process(ctx context.Context, kind constants.EntityKind, text string) (llm.Result, json.RawMessage, error) {
	schema := llm.BuildEnrichmentSchema(kind)

	var out llm.Result
	var doc json.RawMessage
	op := func(ctx context.Context) error {
		res, raw, err := p.enricher.Enrich(ctx, llm.EnrichRequest{
			Text:   text,
			Kind:   kind,
			Schema: schema,
			Params: p.params,
		})
		if err != nil {
			return err
		}
		out, doc = res, raw
		return nil
	}

	if err := p.policy.Execute(ctx, p.gate, op); err != nil {
		return llm.Result{}, nil, err
	}
	return out, doc, nil
}
