package gtfstime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeconds(t *testing.T) {
	for _, tc := range []struct {
		Input    string
		Expected int64
	}{
		{"00:00:00", 0},
		{"08:00:00", 8 * 3600},
		{"8:00:00", 8 * 3600},
		{"23:59:59", 86399},

		// GTFS post-midnight service doesn't wrap
		{"24:00:00", 86400},
		{"25:07:00", 25*3600 + 7*60},

		// Garbage maps to Infinity
		{"", Infinity},
		{"08:00", Infinity},
		{"8:0:0", Infinity},
		{"ab:cd:ef", Infinity},
		{"08:00:00 ", Infinity},
		{"-1:00:00", Infinity},
		{"123:00:00", Infinity},
	} {
		assert.Equal(t, tc.Expected, Seconds(tc.Input), "input %q", tc.Input)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "08:05:09", Format(8*3600+5*60+9))
	assert.Equal(t, "00:00:00", Format(0))

	// no wrapping
	assert.Equal(t, "25:07:00", Format(25*3600+7*60))

	assert.Equal(t, "", Format(Infinity))
	assert.Equal(t, "", Format(-1))
}

func TestClock(t *testing.T) {
	assert.Equal(t, "01:07:00", Clock(25*3600+7*60))
	assert.Equal(t, "08:00:00", Clock(8*3600))
	assert.Equal(t, "", Clock(Infinity))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"00:00:00", "08:30:00", "25:07:00"} {
		assert.Equal(t, s, Format(Seconds(s)))
	}
}
