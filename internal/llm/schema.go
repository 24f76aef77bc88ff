package llm

import "github.com/daybook-app/daybook/constants"

// BuildEnrichmentSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// We pass this to the model as a structured output constraint and also use it locally
// to validate. Top level is closed: exactly title, formatted and an optional metadata
// object. Metadata keys are typed when we know them but the object stays open.
func BuildEnrichmentSchema(kind constants.EntityKind) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title": map[string]any{
				"type":      "string",
				"minLength": 1,
				"maxLength": 200,
			},
			"formatted": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"metadata": metadataSchema(kind),
		},
		"required": []string{"title", "formatted"},
	}
}

func metadataSchema(kind constants.EntityKind) map[string]any {
	props := map[string]any{
		"tags": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string", "minLength": 1},
			"maxItems": 8,
		},
	}

	switch kind {
	case constants.KindNote:
		props["mood"] = map[string]any{"type": "string"}
	case constants.KindTask:
		props["priority"] = map[string]any{
			"type": "string",
			"enum": constants.PrioritiesAsStrings(),
		}
		props["due_hint"] = map[string]any{"type": "string"}
	case constants.KindActivity:
		props["category"] = map[string]any{"type": "string"}
		props["duration_minutes"] = map[string]any{"type": "number", "minimum": 0}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}
