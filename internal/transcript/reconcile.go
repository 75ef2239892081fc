package transcript

import (
	"github.com/gosuda/trail/internal/domain"
)

// EntryKind is the display shape of a transcript entry.
type EntryKind string

const (
	// EntryChat renders as a chat bubble: user/agent messages, extracted
	// thoughts, finish actions.
	EntryChat EntryKind = "chat"
	// EntryGeneric renders as a titled event card for everything without a
	// dedicated shape.
	EntryGeneric EntryKind = "event"
	// EntryError renders as an error callout.
	EntryError EntryKind = "error"
	// EntryConfirmation is a chat bubble that additionally prompts the user
	// to approve or reject the agent's next step.
	EntryConfirmation EntryKind = "confirmation"
)

// Entry is one renderable transcript unit derived from one or more events.
// Entries are immutable once a reconciliation pass returns; a new pass is
// run whenever the log or the confirmation flag changes.
type Entry struct {
	Kind      EntryKind          `json:"kind"`
	Source    domain.EventSource `json:"source"`
	Text      string             `json:"text,omitempty"`
	Title     string             `json:"title,omitempty"`
	Detail    string             `json:"detail,omitempty"`
	ImageURLs []string           `json:"image_urls,omitempty"`
	// SourceSeqs lists the sequence ids of the events this entry was derived
	// from: one for simple messages, two for an action merged with its
	// observation. Events without ids contribute no entry here.
	SourceSeqs []int64 `json:"source_ids,omitempty"`
}

// Reconcile walks the ordered event log and produces the displayable
// transcript. It is pure and deterministic: the same log and flag always
// yield the same entries, so re-renders are idempotent. It never fails;
// unrecognized events degrade to generic entries.
//
// Pairing: an action immediately followed by its corresponding non-error
// observation collapses into a single entry carrying the action's thought.
// Actions without a thought are implicit in their observation and are
// suppressed. Error observations always stand alone, even mid-pair.
//
// When confirmationPending is true and the final entry is an agent chat
// bubble, that one entry (and only that one) becomes a confirmation prompt.
func Reconcile(events []*domain.Event, confirmationPending bool) []Entry {
	events = Dedupe(events)

	entries := make([]Entry, 0, len(events))
	consumed := make(map[int]bool)

	for i, e := range events {
		if consumed[i] {
			continue
		}

		switch {
		case e.IsError():
			entries = append(entries, errorEntry(e))

		case e.Kind == domain.KindMessage:
			entries = append(entries, chatEntry(e, e.Content))

		case e.Kind == domain.KindAction:
			entry, consumedNext, ok := actionEntry(e, nextOf(events, i))
			if consumedNext {
				consumed[i+1] = true
			}
			if ok {
				entries = append(entries, entry)
			}

		case e.Kind == domain.KindObservation:
			entries = append(entries, genericEntry(e))

		default:
			// Unrecognized kind: the fallback describer keeps the pass total.
			entries = append(entries, genericEntry(e))
		}
	}

	gateConfirmation(entries, confirmationPending)

	return entries
}

// nextOf returns the event following index i, or nil at the end of the log.
func nextOf(events []*domain.Event, i int) *domain.Event {
	if i+1 < len(events) {
		return events[i+1]
	}
	return nil
}

// actionEntry decides how an action event renders. Returns the entry, a
// flag for whether the following observation was merged into it, and
// whether an entry should be emitted at all.
func actionEntry(e, next *domain.Event) (Entry, bool, bool) {
	// Terminal actions always surface their final message.
	if e.Action == domain.ActionFinish {
		text := e.Thought
		if text == "" {
			text = e.Content
		}
		return chatEntry(e, text), false, true
	}

	paired := isObservationOf(next, e) && !next.IsError()

	if e.Thought != "" {
		entry := chatEntry(e, e.Thought)
		if paired && next.HasSeq() {
			entry.SourceSeqs = append(entry.SourceSeqs, *next.Seq)
		}
		return entry, paired, true
	}

	if paired {
		// Bare action: implicit in the observation that follows it.
		return Entry{}, false, false
	}

	return genericEntry(e), false, true
}

// isObservationOf reports whether obs answers action. A cause reference
// must match when both sides are identifiable; otherwise adjacency in the
// stream is taken as correspondence.
func isObservationOf(obs, action *domain.Event) bool {
	if obs == nil || obs.Kind != domain.KindObservation {
		return false
	}
	if obs.CauseSeq == nil {
		return true
	}
	return action.HasSeq() && *obs.CauseSeq == *action.Seq
}

func chatEntry(e *domain.Event, text string) Entry {
	return Entry{
		Kind:       EntryChat,
		Source:     e.Source,
		Text:       text,
		ImageURLs:  e.ImageURLs,
		SourceSeqs: seqsOf(e),
	}
}

func errorEntry(e *domain.Event) Entry {
	title, detail := Describe(e)
	text := e.Content
	if text == "" {
		text = detail
	}
	return Entry{
		Kind:       EntryError,
		Source:     e.Source,
		Text:       text,
		Title:      title,
		SourceSeqs: seqsOf(e),
	}
}

func genericEntry(e *domain.Event) Entry {
	title, detail := Describe(e)
	return Entry{
		Kind:       EntryGeneric,
		Source:     e.Source,
		Title:      title,
		Detail:     detail,
		SourceSeqs: seqsOf(e),
	}
}

func seqsOf(e *domain.Event) []int64 {
	if !e.HasSeq() {
		return nil
	}
	return []int64{*e.Seq}
}

// gateConfirmation promotes the final entry to a confirmation prompt when
// the agent is waiting on the user. At most one entry ever carries the
// prompt, and only while it is both agent-attributable and last overall.
func gateConfirmation(entries []Entry, pending bool) {
	if !pending || len(entries) == 0 {
		return
	}
	last := &entries[len(entries)-1]
	if last.Source == domain.SourceAgent && last.Kind == EntryChat {
		last.Kind = EntryConfirmation
	}
}
