package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/daybook-app/daybook/constants"
)

// SanitizeEnrichment
// - Trims title/formatted and drops them when blank
// - Drops null or mistyped metadata, and null members inside it
// - Canonicalizes task priority synonyms to the allowed enum
// - Removes unknown top-level keys (strict additionalProperties = false friendliness)
func SanitizeEnrichment(raw []byte, kind constants.EntityKind, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	for _, k := range []string{"title", "formatted"} {
		switch v := m[k].(type) {
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		case nil:
			if _, present := m[k]; present {
				delete(m, k)
				dropped = append(dropped, k+"(null)")
			}
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	switch meta := m["metadata"].(type) {
	case map[string]any:
		for k, v := range maps.Clone(meta) {
			if v == nil {
				delete(meta, k)
				dropped = append(dropped, "metadata."+k+"(null)")
			}
		}
		if kind == constants.KindTask {
			if p, ok := meta["priority"].(string); ok {
				canon, exact := constants.CanonicalizePriority(p)
				meta["priority"] = string(canon)
				if !exact {
					dropped = append(dropped, "metadata.priority(coerced)")
				}
			}
		}
		if len(meta) == 0 {
			delete(m, "metadata")
			dropped = append(dropped, "metadata(empty)")
		}
	case nil:
		if _, present := m["metadata"]; present {
			delete(m, "metadata")
			dropped = append(dropped, "metadata(null)")
		}
	default:
		delete(m, "metadata")
		dropped = append(dropped, "metadata(type)")
	}

	for k := range maps.Clone(m) {
		switch k {
		case "title", "formatted", "metadata":
		default:
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.enrich.sanitize", "kind", kind, "dropped", dropped)
	}
	return out, dropped, nil
}
