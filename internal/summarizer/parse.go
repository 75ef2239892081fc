package summarizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gosuda/trail/internal/domain"
)

// ErrNotConfigured is returned when no summarizer endpoint is set.
var ErrNotConfigured = errors.New("summarizer: not configured")

// Summary is a normalized summarization result.
type Summary struct {
	OverallSummary string                  `json:"overall_summary"`
	Segments       []domain.SummarySegment `json:"segments"`
}

var codeFencePattern = regexp.MustCompile("```json|```")

// maxIDSpan bounds id-range completion per segment.
const maxIDSpan = 10_000

// ParseResponse normalizes the summarization service's raw response into a
// Summary. The service relays model output, so the payload may arrive
// wrapped in markdown code fences and with several generations of id
// formats; every known degradation is repaired here rather than surfaced.
func ParseResponse(raw string) (*Summary, error) {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(raw, ""))

	var s Summary
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return nil, fmt.Errorf("summarizer.ParseResponse: %w", err)
	}

	for i := range s.Segments {
		normalizeSegment(&s.Segments[i])
	}

	return &s, nil
}

func normalizeSegment(seg *domain.SummarySegment) {
	// Derive endpoint timestamps from a combined range when the explicit
	// fields are absent.
	if seg.StartTimestamp == "" && seg.EndTimestamp == "" && seg.TimestampRange != "" {
		parts := strings.SplitN(seg.TimestampRange, "-", 2)
		if len(parts) == 2 {
			seg.StartTimestamp = strings.TrimSpace(parts[0])
			seg.EndTimestamp = strings.TrimSpace(parts[1])
		}
	}

	fillIDRange(seg)
}

// fillIDRange completes a segment's id references to the full min..max
// span. Models reliably name the first and last event of a segment but
// drop ids in the middle; the events between the endpoints belong to the
// segment by construction.
func fillIDRange(seg *domain.SummarySegment) {
	if len(seg.IDs) < 2 {
		return
	}

	minID, maxID := seg.IDs[0], seg.IDs[0]
	for _, id := range seg.IDs[1:] {
		if id < minID {
			minID = id
		}
		if id > maxID {
			maxID = id
		}
	}

	// A hallucinated endpoint would otherwise explode the range.
	if maxID-minID > maxIDSpan {
		return
	}

	have := make(map[int64]bool, len(seg.IDs))
	for _, id := range seg.IDs {
		have[id] = true
	}
	raw := make(map[string]bool, len(seg.RawIDs))
	for _, r := range seg.RawIDs {
		raw[r] = true
	}

	for id := minID; id <= maxID; id++ {
		if !have[id] {
			seg.IDs = append(seg.IDs, id)
		}
		if s := strconv.FormatInt(id, 10); !raw[s] {
			seg.RawIDs = append(seg.RawIDs, s)
		}
	}

	sort.Slice(seg.IDs, func(i, j int) bool { return seg.IDs[i] < seg.IDs[j] })
}
