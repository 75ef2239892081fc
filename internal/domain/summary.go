package domain

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SummarySegment is an externally computed grouping over a past range of
// events with a textual summary. Which events belong to a segment is
// best-effort: the summarizer's id references may be stale, string-typed,
// or absent entirely, so resolution happens at read time (see the
// transcript package) and may legitimately come up empty.
type SummarySegment struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	// IDs holds the numeric event ids the summarizer referenced.
	IDs []int64 `json:"ids,omitempty"`
	// RawIDs preserves every referenced id in string form, including values
	// that did not parse as integers. Kept for the stringified matching
	// fallback when the numeric forms miss.
	RawIDs         []string `json:"raw_ids,omitempty"`
	TimestampRange string   `json:"timestamp_range,omitempty"` // "HH:MM:SS-HH:MM:SS"
	StartTimestamp string   `json:"start_timestamp,omitempty"`
	EndTimestamp   string   `json:"end_timestamp,omitempty"`
}

// summarySegmentJSON mirrors SummarySegment but takes ids as a mixed array
// so numeric and string id forms both decode.
type summarySegmentJSON struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	IDs            []any    `json:"ids"`
	RawIDs         []string `json:"raw_ids"`
	TimestampRange string   `json:"timestamp_range"`
	StartTimestamp string   `json:"start_timestamp"`
	EndTimestamp   string   `json:"end_timestamp"`
}

// UnmarshalJSON tolerates id type drift: elements of "ids" may be JSON
// numbers or strings depending on summarizer version. Numeric forms land in
// IDs, every form lands in RawIDs.
func (s *SummarySegment) UnmarshalJSON(data []byte) error {
	var aux summarySegmentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.Title = aux.Title
	s.Summary = aux.Summary
	s.TimestampRange = aux.TimestampRange
	s.StartTimestamp = aux.StartTimestamp
	s.EndTimestamp = aux.EndTimestamp
	s.IDs = nil
	s.RawIDs = nil

	for _, v := range aux.IDs {
		switch id := v.(type) {
		case float64:
			n := int64(id)
			s.IDs = append(s.IDs, n)
			s.RawIDs = append(s.RawIDs, strconv.FormatInt(n, 10))
		case string:
			s.RawIDs = append(s.RawIDs, id)
			if n, err := strconv.ParseInt(id, 10, 64); err == nil {
				s.IDs = append(s.IDs, n)
			}
		default:
			// Unrecognized id forms are dropped rather than failing the
			// whole segment.
		}
	}

	// Older payloads carry raw_ids already normalized; keep them when the
	// ids field was absent.
	if len(aux.IDs) == 0 && len(aux.RawIDs) > 0 {
		s.RawIDs = aux.RawIDs
		for _, raw := range aux.RawIDs {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				s.IDs = append(s.IDs, n)
			}
		}
	}

	return nil
}

// ConversationSummary is the stored result of one summarization run:
// an overall summary plus ordered segments.
type ConversationSummary struct {
	ConversationID uuid.UUID        `json:"conversation_id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	OverallSummary string           `json:"overall_summary"`
	Segments       []SummarySegment `json:"segments"`
	CreatedAt      time.Time        `json:"created_at"`
}

type SummaryRepository interface {
	Upsert(ctx context.Context, s *ConversationSummary) error
	GetByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (*ConversationSummary, error)
	DeleteByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) error
}
