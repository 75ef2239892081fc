package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventSource identifies who produced an event.
type EventSource string

const (
	SourceUser        EventSource = "user"
	SourceAgent       EventSource = "agent"
	SourceEnvironment EventSource = "environment"
)

// EventKind discriminates the event payload.
type EventKind string

const (
	KindMessage     EventKind = "message"
	KindAction      EventKind = "action"
	KindObservation EventKind = "observation"
	KindError       EventKind = "error"
)

// ActionFinish is the terminal action name. A finish action always renders
// as a chat message even without a paired observation.
const ActionFinish = "finish"

// Event is one record in a conversation's append-only log. Events are
// immutable once appended; the log is never reordered, only filtered for
// display.
type Event struct {
	// Seq is the monotonic per-conversation sequence id assigned on append.
	// Nil for events the feed delivered without an id; such events still
	// render sequentially but cannot be referenced by summary segments.
	Seq            *int64         `json:"id,omitempty"`
	ConversationID uuid.UUID      `json:"conversation_id,omitempty"`
	Source         EventSource    `json:"source"`
	Kind           EventKind      `json:"kind"`
	Timestamp      string         `json:"timestamp,omitempty"` // ISO-8601 as received
	Action         string         `json:"action,omitempty"`    // action name, kind=action
	Observation    string         `json:"observation,omitempty"`
	Content        string         `json:"content,omitempty"`
	Thought        string         `json:"thought,omitempty"` // reasoning attached to an action
	CauseSeq       *int64         `json:"cause,omitempty"`   // id of the action this observation answers
	ImageURLs      []string       `json:"image_urls,omitempty"`
	Extras         map[string]any `json:"extras,omitempty"`
	CreatedAt      time.Time      `json:"-"`
}

// HasSeq reports whether the event carries an identity usable for
// segment references and pairing.
func (e *Event) HasSeq() bool {
	return e != nil && e.Seq != nil
}

// IsError reports whether the event must render as a standalone error
// entry regardless of pairing.
func (e *Event) IsError() bool {
	if e == nil {
		return false
	}
	return e.Kind == KindError || (e.Kind == KindObservation && e.Observation == "error")
}

// Time parses the event timestamp. The second return value is false when
// the timestamp is absent or not valid RFC 3339.
func (e *Event) Time() (time.Time, bool) {
	if e == nil || e.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// EventRepository stores and retrieves the ordered per-conversation log.
// Append assigns the next sequence id; ListByConversation returns events
// in sequence order.
type EventRepository interface {
	Append(ctx context.Context, tenantID uuid.UUID, e *Event) error
	ListByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) ([]*Event, error)
	CountByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (int64, error)
}
