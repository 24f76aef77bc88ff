package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daybook-app/daybook/internal/llm"
	"github.com/daybook-app/daybook/internal/pipeline"
)

// Enrich implements llm.Enricher using text-only chat/completions. Errors are
// classified for the retry policy: transport failures and 5xx are retryable,
// 429 carries the server's wait, everything the model got wrong is fatal.
func (c *Client) Enrich(ctx context.Context, req llm.EnrichRequest) (llm.Result, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	model := c.cfg.Model
	if req.Params.Model != "" {
		model = req.Params.Model
	}
	temperature := c.cfg.Temperature
	if req.Params.Temperature > 0 {
		temperature = req.Params.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if req.Params.MaxTokens > 0 {
		maxTokens = req.Params.MaxTokens
	}

	c.log.Info("llm.enrich.start",
		"req_id", rid,
		"kind", req.Kind,
		"model", model,
		"temp", temperature,
		"text_len", len(req.Text),
	)

	schema := req.Schema
	if schema == nil {
		schema = llm.BuildEnrichmentSchema(req.Kind)
	}

	body := map[string]any{
		"model":           model,
		"temperature":     temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req.Kind)},
			{"role": "user", "content": llm.BuildUserPrompt(req.Text) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("llm.enrich.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Result{}, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.enrich.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Result{}, raw, &pipeline.ValidationError{Reason: "decode completion response", Err: err}
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.enrich.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Result{}, raw, &pipeline.ValidationError{Reason: "no choices in completion response"}
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	rawContent := []byte(content)

	// Validate strictly first.
	if err := llm.ValidateAgainstSchema(rawContent, schema); err != nil {
		if !c.cfg.Lenient {
			c.log.Error("llm.enrich.schema_validation_failed",
				"req_id", rid, "error", err, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Result{}, rawContent, &pipeline.ValidationError{Reason: "schema validation failed", Err: err}
		}
		// Lenient pass: normalize the usual offenders and re-validate.
		cleaned, dropped, sErr := llm.SanitizeEnrichment(rawContent, req.Kind, c.log)
		if sErr != nil {
			c.log.Error("llm.enrich.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Result{}, rawContent, &pipeline.ValidationError{Reason: "sanitize model output", Err: sErr}
		}
		if vErr := llm.ValidateAgainstSchema(cleaned, schema); vErr != nil {
			c.log.Error("llm.enrich.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", content,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.Result{}, rawContent, &pipeline.ValidationError{Reason: "schema validation failed", Err: vErr}
		}
		c.log.Warn("llm.enrich.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.Result
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.log.Error("llm.enrich.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.Result{}, rawContent, &pipeline.ValidationError{Reason: "unmarshal result", Err: err}
	}

	c.log.Info("llm.enrich.ok",
		"req_id", rid,
		"title", out.Title,
		"formatted_len", len(out.Formatted),
		"metadata_keys", len(out.Metadata),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, &pipeline.ValidationError{Reason: "marshal request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, &pipeline.ValidationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A cancelled or expired context is the caller's deadline, not the
		// service misbehaving. Let the policy see the context error as-is.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &pipeline.ConnectivityError{Op: "enrichment request", Err: err}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("enrichment response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	payload := buf.Bytes()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return payload, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &pipeline.RateLimitError{Wait: retryAfter(resp)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &pipeline.AuthError{Status: resp.StatusCode}
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode >= 500:
		return nil, &pipeline.ConnectivityError{
			Op:  fmt.Sprintf("enrichment status %d", resp.StatusCode),
			Err: errors.New(trimBody(payload)),
		}
	default:
		return nil, &pipeline.ValidationError{
			Reason: fmt.Sprintf("enrichment status %d: %s", resp.StatusCode, trimBody(payload)),
		}
	}
}

// retryAfter reads the Retry-After header, seconds form only. Zero means the
// server gave no usable hint and the policy falls back to its own backoff.
func retryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func trimBody(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
