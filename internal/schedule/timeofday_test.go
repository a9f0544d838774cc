package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]int{
		"08:00":  480,
		"13:45":  825,
		"00:00":  0,
		"23:59":  1439,
		" 09:15": 555,
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseTimeOfDayRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "9", "24:00", "12:60", "ab:cd", "12-30", "-1:15"} {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, in)
	}
}

func TestFormatTimeOfDayRoundTrip(t *testing.T) {
	for m := 0; m < 24*60; m += SlotStepMinutes {
		got, err := ParseTimeOfDay(FormatTimeOfDay(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}
