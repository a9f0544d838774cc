package schedule

// Daily slot grid for a center: every quarter hour from 08:00 through 19:30
// inclusive, with the 13:00 lunch hour carved out before any booking-based
// filtering.
const (
	GridStartMinutes = 8 * 60
	GridEndMinutes   = 19*60 + 30
	SlotStepMinutes  = 15
	LunchHour        = 13

	DefaultDurationMinutes = 15
)

// Booking is the slice of an appointment the scheduler cares about: its
// identity and the minute interval it occupies.
type Booking struct {
	ID              string
	StartMinutes    int
	DurationMinutes int
}

func (b Booking) duration() int {
	if b.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return b.DurationMinutes
}

// RoleRestricted reports whether a role only books the quarter-past /
// quarter-to starts (org partners and doctors, so in-house staff keeps the
// on-the-hour slots).
func RoleRestricted(role string) bool {
	return role == "org" || role == "doctor"
}

// Grid returns candidate slot starts in minutes from midnight, ascending,
// after the lunch-hour exclusion and the role coarsening filter.
func Grid(role string) []int {
	restricted := RoleRestricted(role)
	var out []int
	for m := GridStartMinutes; m <= GridEndMinutes; m += SlotStepMinutes {
		if m/60 == LunchHour {
			continue
		}
		if restricted && m%30 != 15 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// AvailableSlots returns the free "HH:MM" starts for one (date, center) day.
// existing must already be scoped to that day and center; excludeID skips one
// booking so an appointment being edited does not block itself.
//
// A booking occupies its start slot plus duration/15-1 following slots. No
// clamping against the grid or lunch window is done here: creation is
// validated, so a stored booking never crosses those boundaries.
func AvailableSlots(role string, existing []Booking, excludeID string) []string {
	occupied := make(map[int]struct{}, len(existing))
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		occupied[b.StartMinutes] = struct{}{}
		extra := b.duration()/SlotStepMinutes - 1
		for i := 1; i <= extra; i++ {
			occupied[b.StartMinutes+i*SlotStepMinutes] = struct{}{}
		}
	}

	grid := Grid(role)
	out := make([]string, 0, len(grid))
	for _, m := range grid {
		if _, taken := occupied[m]; taken {
			continue
		}
		out = append(out, FormatTimeOfDay(m))
	}
	return out
}
