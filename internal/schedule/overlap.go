package schedule

import "fmt"

// Conflict describes the first existing booking that intersects a candidate
// interval.
type Conflict struct {
	BookingID    string
	StartMinutes int
}

func (c *Conflict) Error() string {
	return fmt.Sprintf("time %s is already taken", FormatTimeOfDay(c.StartMinutes))
}

// FindConflict checks a candidate interval against the day's bookings and
// returns the first one that overlaps, or nil. Intervals are half-open, so a
// booking ending exactly when the candidate starts does not conflict.
// excludeID skips one booking, for edits.
func FindConflict(candidate Booking, existing []Booking, excludeID string) *Conflict {
	start := candidate.StartMinutes
	end := start + candidate.duration()
	for _, b := range existing {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		bStart := b.StartMinutes
		bEnd := bStart + b.duration()
		if bEnd > start && bStart < end {
			return &Conflict{BookingID: b.ID, StartMinutes: bStart}
		}
	}
	return nil
}
