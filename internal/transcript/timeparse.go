package transcript

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockPattern extracts HH:MM or HH:MM:SS from otherwise unparseable
// timestamp strings. Summarizer timestamps and event timestamps have
// drifted across formats; time-of-day is the only component both share.
var clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`)

// clockOf reduces a timestamp string to seconds since midnight. Accepts
// RFC 3339, bare "HH:MM:SS" / "HH:MM" clocks, and falls back to regex
// extraction from anything else. Returns false when no clock can be found.
func clockOf(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Hour()*3600 + t.Minute()*60 + t.Second(), true
	}

	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m[2])
	if err != nil || minute > 59 {
		return 0, false
	}
	second := 0
	if m[3] != "" {
		second, err = strconv.Atoi(m[3])
		if err != nil || second > 59 {
			return 0, false
		}
	}

	return hour*3600 + minute*60 + second, true
}

// splitClockRange splits a combined "HH:MM:SS-HH:MM:SS" range string into
// its endpoints. Returns false unless both sides are present.
func splitClockRange(r string) (start, end string, ok bool) {
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	start = strings.TrimSpace(parts[0])
	end = strings.TrimSpace(parts[1])
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}
