package llm

import (
	"strings"

	"github.com/daybook-app/daybook/constants"
)

// maxPromptText bounds how much of a record we ship to the model. Long notes
// past this point rarely change the title or metadata.
const maxPromptText = 6000

// BuildSystemPrompt composes the system message with the output contract and
// per-kind guidance.
func BuildSystemPrompt(kind constants.EntityKind) string {
	parts := []string{
		"You are an assistant for a personal life-logging journal. Return ONLY JSON that matches the provided JSON Schema.",
		"'title' is a short headline for the record, at most 200 characters, no trailing punctuation.",
		"'formatted' is the record rewritten as clean Markdown. Fix spelling and spacing but never invent facts that are not in the text.",
		kindGuidance(kind),
		"Never output null. If a field is not present, omit it.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the raw record text, truncated so pathological inputs
// cannot blow the token budget.
func BuildUserPrompt(text string) string {
	text = strings.TrimSpace(text)

	var b strings.Builder
	b.WriteString("Record text:\n")
	if len(text) > maxPromptText {
		b.WriteString(text[:maxPromptText])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

// kindGuidance emits short, high-precision rules for the metadata of one kind.
func kindGuidance(kind constants.EntityKind) string {
	switch kind {
	case constants.KindNote:
		return "This record is a journal note. In 'metadata' include 'tags' (up to 8 short lowercase topics) and, when the text clearly conveys one, 'mood' as a single word."
	case constants.KindTask:
		return "This record is a to-do item. In 'metadata' include 'priority' as exactly one of " +
			strings.Join(constants.PrioritiesAsStrings(), ", ") +
			" (when torn between two, choose the lower one), 'due_hint' quoting any deadline phrase from the text, and 'tags' (up to 8 short lowercase topics)."
	case constants.KindActivity:
		return "This record describes an activity. In 'metadata' include 'category' (a short label such as exercise, social, chores, work), 'duration_minutes' when the text states or clearly implies a duration, and 'tags' (up to 8 short lowercase topics)."
	default:
		return "In 'metadata' include 'tags' (up to 8 short lowercase topics)."
	}
}
