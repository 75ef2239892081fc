package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want int
		ok   bool
	}{
		{name: "rfc3339", in: "2026-03-01T14:30:05Z", want: 14*3600 + 30*60 + 5, ok: true},
		{name: "rfc3339 with offset", in: "2026-03-01T09:00:00+02:00", want: 9 * 3600, ok: true},
		{name: "bare clock with seconds", in: "14:30:05", want: 14*3600 + 30*60 + 5, ok: true},
		{name: "bare clock without seconds", in: "14:30", want: 14*3600 + 30*60, ok: true},
		{name: "clock embedded in text", in: "logged at 7:45 by runtime", want: 7*3600 + 45*60, ok: true},
		{name: "whitespace padded", in: "  14:30:05  ", want: 14*3600 + 30*60 + 5, ok: true},
		{name: "empty", in: "", ok: false},
		{name: "no clock at all", in: "around lunchtime", ok: false},
		{name: "hour out of range", in: "25:00", ok: false},
		{name: "minute out of range", in: "14:75", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := clockOf(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSplitClockRange(t *testing.T) {
	t.Parallel()

	t.Run("full range", func(t *testing.T) {
		t.Parallel()

		start, end, ok := splitClockRange("14:00:00-14:05:00")
		assert.True(t, ok)
		assert.Equal(t, "14:00:00", start)
		assert.Equal(t, "14:05:00", end)
	})

	t.Run("spaces around hyphen", func(t *testing.T) {
		t.Parallel()

		start, end, ok := splitClockRange("14:00 - 14:05")
		assert.True(t, ok)
		assert.Equal(t, "14:00", start)
		assert.Equal(t, "14:05", end)
	})

	t.Run("missing side", func(t *testing.T) {
		t.Parallel()

		_, _, ok := splitClockRange("14:00-")
		assert.False(t, ok)
	})

	t.Run("no hyphen", func(t *testing.T) {
		t.Parallel()

		_, _, ok := splitClockRange("14:00")
		assert.False(t, ok)
	})
}

func TestLabelFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Run Ipython", labelFor("run_ipython", "Event"))
	assert.Equal(t, "Browse", labelFor("browse", "Event"))
	assert.Equal(t, "Str Replace Editor", labelFor("str-replace_editor", "Event"))
	assert.Equal(t, "Event", labelFor("", "Event"))
}
