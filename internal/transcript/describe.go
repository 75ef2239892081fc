package transcript

import (
	"strings"

	"github.com/gosuda/trail/internal/domain"
)

const maxDetailLen = 400

// Describe produces a title/detail pair for events that have no dedicated
// rendering: bare observations, unpaired actions without a thought, and
// anything with an unrecognized kind. This is the default branch of the
// reconciler and must be total: any event yields something displayable.
func Describe(e *domain.Event) (title, detail string) {
	if e == nil {
		return "Event", ""
	}

	switch e.Kind {
	case domain.KindAction:
		title = labelFor(e.Action, "Action")
	case domain.KindObservation:
		title = labelFor(e.Observation, "Observation")
	case domain.KindMessage:
		title = "Message"
	case domain.KindError:
		title = "Error"
	default:
		title = labelFor(string(e.Kind), "Event")
	}

	detail = e.Content
	if detail == "" {
		detail = e.Thought
	}
	if r := []rune(detail); len(r) > maxDetailLen {
		detail = string(r[:maxDetailLen]) + "…"
	}

	return title, detail
}

// labelFor turns a snake_case identifier like "run_ipython" into a display
// label, falling back when the identifier is empty.
func labelFor(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}

	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}
