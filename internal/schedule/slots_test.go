package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridUnrestricted(t *testing.T) {
	slots := AvailableSlots("admin", nil, "")
	require.Len(t, slots, 44)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "19:30", slots[len(slots)-1])
	for _, s := range slots {
		assert.False(t, strings.HasPrefix(s, "13:"), "lunch hour slot %s leaked", s)
	}
}

func TestGridRestrictedRoles(t *testing.T) {
	for _, role := range []string{"org", "doctor"} {
		slots := AvailableSlots(role, nil, "")
		require.Len(t, slots, 21, "role %s", role)
		for _, s := range slots {
			assert.True(t, strings.HasSuffix(s, ":15") || strings.HasSuffix(s, ":45"),
				"role %s got off-pattern slot %s", role, s)
		}
	}
}

func TestAvailableSlotsOccupancy(t *testing.T) {
	existing := []Booking{
		{ID: "a", StartMinutes: 9 * 60, DurationMinutes: 30},
		{ID: "b", StartMinutes: 10 * 60},
	}
	slots := AvailableSlots("admin", existing, "")
	assert.NotContains(t, slots, "09:00")
	assert.NotContains(t, slots, "09:15")
	assert.Contains(t, slots, "09:30")
	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "10:15")
	assert.Len(t, slots, 41)
}

func TestAvailableSlotsZeroDurationDefaults(t *testing.T) {
	existing := []Booking{{ID: "a", StartMinutes: 11 * 60}}
	slots := AvailableSlots("admin", existing, "")
	assert.NotContains(t, slots, "11:00")
	assert.Contains(t, slots, "11:15")
}

func TestAvailableSlotsExcludeSelf(t *testing.T) {
	existing := []Booking{{ID: "edit-me", StartMinutes: 14 * 60, DurationMinutes: 30}}
	assert.NotContains(t, AvailableSlots("admin", existing, ""), "14:00")
	withSelf := AvailableSlots("admin", existing, "edit-me")
	assert.Contains(t, withSelf, "14:00")
	assert.Contains(t, withSelf, "14:15")
	assert.Len(t, withSelf, 44)
}
