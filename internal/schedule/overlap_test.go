package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConflictAdjacentIsFree(t *testing.T) {
	existing := []Booking{{ID: "a", StartMinutes: 9 * 60, DurationMinutes: 30}}

	// Back to back on either side of the existing booking.
	assert.Nil(t, FindConflict(Booking{StartMinutes: 9*60 + 30}, existing, ""))
	assert.Nil(t, FindConflict(Booking{StartMinutes: 8*60 + 45}, existing, ""))
}

func TestFindConflictOverlap(t *testing.T) {
	existing := []Booking{{ID: "a", StartMinutes: 9 * 60, DurationMinutes: 30}}

	c := FindConflict(Booking{StartMinutes: 9*60 + 15}, existing, "")
	require.NotNil(t, c)
	assert.Equal(t, "a", c.BookingID)
	assert.Equal(t, "time 09:00 is already taken", c.Error())

	// Candidate that starts before and runs into the booking.
	c = FindConflict(Booking{StartMinutes: 8*60 + 50, DurationMinutes: 15}, existing, "")
	require.NotNil(t, c)
}

func TestFindConflictOffGridMinutes(t *testing.T) {
	// Legacy rows may sit off the quarter-hour grid; interval math still holds.
	existing := []Booking{{ID: "a", StartMinutes: 9*60 + 7, DurationMinutes: 15}}
	assert.NotNil(t, FindConflict(Booking{StartMinutes: 9 * 60}, existing, ""))
	assert.Nil(t, FindConflict(Booking{StartMinutes: 9*60 + 22}, existing, ""))
}

func TestFindConflictExcludeSelf(t *testing.T) {
	existing := []Booking{{ID: "edit-me", StartMinutes: 10 * 60, DurationMinutes: 30}}
	require.NotNil(t, FindConflict(Booking{StartMinutes: 10 * 60}, existing, ""))
	assert.Nil(t, FindConflict(Booking{StartMinutes: 10 * 60, DurationMinutes: 30}, existing, "edit-me"))
}

func TestFindConflictFirstWins(t *testing.T) {
	existing := []Booking{
		{ID: "first", StartMinutes: 10 * 60},
		{ID: "second", StartMinutes: 10 * 60},
	}
	c := FindConflict(Booking{StartMinutes: 10 * 60}, existing, "")
	require.NotNil(t, c)
	assert.Equal(t, "first", c.BookingID)
}
