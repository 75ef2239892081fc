// Package transcript turns a conversation's append-only event log into
// renderable transcript entries and resolves summary segments against it.
// Everything in this package is pure in-memory transformation: no I/O, no
// persistence, no side effects.
package transcript

import (
	"github.com/gosuda/trail/internal/domain"
)

// Buffer is the ordered in-memory event log for one live conversation.
// Events are append-only; the buffer never reorders or drops them. A Buffer
// is owned by exactly one conversation context (a live socket session) and
// is not safe for concurrent use.
type Buffer struct {
	events []*domain.Event
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Seed replaces the buffer contents with an already-ordered log, typically
// loaded from the store before going live.
func (b *Buffer) Seed(events []*domain.Event) {
	b.events = append(b.events[:0], events...)
}

// Append adds one event to the end of the log. Malformed events (no
// sequence id) are retained; they render sequentially but cannot be
// referenced by summary segments.
func (b *Buffer) Append(e *domain.Event) {
	if e == nil {
		return
	}
	b.events = append(b.events, e)
}

// Snapshot returns the current ordered log. The returned slice is a copy
// but the event pointers are stable across appends, so unchanged entries
// keep their identity downstream.
func (b *Buffer) Snapshot() []*domain.Event {
	out := make([]*domain.Event, len(b.events))
	copy(out, b.events)
	return out
}

func (b *Buffer) Len() int {
	return len(b.events)
}

// Reset discards the log, for reuse when the owning session switches
// conversations.
func (b *Buffer) Reset() {
	b.events = b.events[:0]
}

type dedupeKey struct {
	seq  int64
	kind domain.EventKind
}

// Dedupe removes later duplicates sharing the same (id, kind) composite
// key, preserving order. Duplicates should not occur in a correct feed;
// this is guard-defense. Events without a sequence id are never considered
// duplicates of anything.
func Dedupe(events []*domain.Event) []*domain.Event {
	seen := make(map[dedupeKey]bool, len(events))
	out := make([]*domain.Event, 0, len(events))

	for _, e := range events {
		if e == nil {
			continue
		}
		if e.HasSeq() {
			key := dedupeKey{seq: *e.Seq, kind: e.Kind}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, e)
	}

	return out
}
