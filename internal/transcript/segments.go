package transcript

import (
	"math"
	"strconv"

	"github.com/gosuda/trail/internal/domain"
)

// ResolveSegmentEvents maps a summary segment back onto the event log.
// The summarizer's references degrade in several known ways (stale ids,
// string-typed ids, no ids at all, only a clock range), so matching runs
// through a cascade of strategies and the first non-empty result wins:
//
//  1. exact numeric id match
//  2. stringified id match
//  3. even split of agent activity across all segments
//  4. clock-range match on event timestamps
//  5. proportional slice from the segment's position
//  6. everything, when this is the only segment
//
// An empty result is a legitimate outcome ("no messages found"), never an
// error. Matched events always come back in log order, deduplicated by
// (id, kind), regardless of the order the segment listed them.
func ResolveSegmentEvents(seg domain.SummarySegment, events []*domain.Event, segmentIndex, totalSegments int) []*domain.Event {
	events = Dedupe(events)

	if matched := matchByID(seg, events); len(matched) > 0 {
		return matched
	}

	if matched := matchByStringID(seg, events); len(matched) > 0 {
		return matched
	}

	if matched := splitAgentActivity(events, segmentIndex, totalSegments); len(matched) > 0 {
		return matched
	}

	if matched := matchByClockRange(seg, events); len(matched) > 0 {
		return matched
	}

	if matched := proportionalSlice(seg, events, segmentIndex, totalSegments); len(matched) > 0 {
		return matched
	}

	if totalSegments == 1 {
		return events
	}

	return nil
}

func matchByID(seg domain.SummarySegment, events []*domain.Event) []*domain.Event {
	if len(seg.IDs) == 0 {
		return nil
	}

	want := make(map[int64]bool, len(seg.IDs))
	for _, id := range seg.IDs {
		want[id] = true
	}

	var out []*domain.Event
	for _, e := range events {
		if e.HasSeq() && want[*e.Seq] {
			out = append(out, e)
		}
	}
	return out
}

// matchByStringID tolerates id type drift between the summarizer and the
// feed by comparing string forms. Only reached when the numeric match came
// up empty.
func matchByStringID(seg domain.SummarySegment, events []*domain.Event) []*domain.Event {
	if len(seg.RawIDs) == 0 {
		return nil
	}

	want := make(map[string]bool, len(seg.RawIDs))
	for _, raw := range seg.RawIDs {
		want[raw] = true
	}

	var out []*domain.Event
	for _, e := range events {
		if e.HasSeq() && want[strconv.FormatInt(*e.Seq, 10)] {
			out = append(out, e)
		}
	}
	return out
}

// splitAgentActivity divides the agent-sourced, non-plain-message events
// evenly across all segments and returns this segment's share.
func splitAgentActivity(events []*domain.Event, segmentIndex, totalSegments int) []*domain.Event {
	if totalSegments < 1 || segmentIndex < 0 || segmentIndex >= totalSegments {
		return nil
	}

	var candidates []*domain.Event
	for _, e := range events {
		if e.Source == domain.SourceAgent && e.Kind != domain.KindMessage {
			candidates = append(candidates, e)
		}
	}

	start := segmentIndex * len(candidates) / totalSegments
	end := (segmentIndex + 1) * len(candidates) / totalSegments
	if start >= end {
		return nil
	}
	return candidates[start:end]
}

// matchByClockRange filters events whose time-of-day falls inside the
// segment's clock range. Events whose timestamps defeat parsing are simply
// excluded from this strategy; they remain eligible for later ones.
func matchByClockRange(seg domain.SummarySegment, events []*domain.Event) []*domain.Event {
	startStr, endStr := seg.StartTimestamp, seg.EndTimestamp
	if startStr == "" || endStr == "" {
		var ok bool
		startStr, endStr, ok = splitClockRange(seg.TimestampRange)
		if !ok {
			return nil
		}
	}

	start, okStart := clockOf(startStr)
	end, okEnd := clockOf(endStr)
	if !okStart || !okEnd || end < start {
		return nil
	}

	var out []*domain.Event
	for _, e := range events {
		c, ok := clockOf(e.Timestamp)
		if ok && c >= start && c <= end {
			out = append(out, e)
		}
	}
	return out
}

// proportionalSlice approximates a segment's events from its position in
// the segment list. Last resort before the single-segment fallback, used
// only when the segment carried a clock range that matched nothing.
func proportionalSlice(seg domain.SummarySegment, events []*domain.Event, segmentIndex, totalSegments int) []*domain.Event {
	if seg.TimestampRange == "" || totalSegments < 2 || len(events) == 0 {
		return nil
	}
	if segmentIndex < 0 || segmentIndex >= totalSegments {
		return nil
	}

	share := len(events) / totalSegments
	if share < 1 {
		share = 1
	}

	frac := float64(segmentIndex) / float64(totalSegments-1)
	start := int(math.Round(frac * float64(len(events)-share)))
	if start < 0 {
		start = 0
	}
	if start+share > len(events) {
		start = len(events) - share
	}

	return events[start : start+share]
}

// SummarizedSeqs collects every event id referenced by any segment.
func SummarizedSeqs(segments []domain.SummarySegment) map[int64]bool {
	out := make(map[int64]bool)
	for _, seg := range segments {
		for _, id := range seg.IDs {
			out[id] = true
		}
		for _, raw := range seg.RawIDs {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				out[id] = true
			}
		}
	}
	return out
}

// PartitionBySegments splits the log into events covered by some segment's
// id references and the rest. Every event lands in exactly one bucket;
// events without ids are never referencable and always count as
// unsummarized.
func PartitionBySegments(segments []domain.SummarySegment, events []*domain.Event) (summarized, unsummarized []*domain.Event) {
	covered := SummarizedSeqs(segments)

	for _, e := range Dedupe(events) {
		if e.HasSeq() && covered[*e.Seq] {
			summarized = append(summarized, e)
		} else {
			unsummarized = append(unsummarized, e)
		}
	}

	return summarized, unsummarized
}
