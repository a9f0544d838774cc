// Package journal derives a display status for each appointment in a day's
// journal. Payment is the only authoritative signal; everything else is a
// heuristic over the same day's paid entries and the clock.
package journal

const (
	StatusCompleted = "completed"
	StatusLate      = "late"
	StatusPending   = "pending"
)

const (
	DefaultFuzzyThreshold   = 0.85
	DefaultLateAfterMinutes = 25
)

// Entry is one journal row as the classifier sees it.
type Entry struct {
	ID           string
	PatientName  string
	Paid         bool
	StartMinutes int
}

// Classifier holds the tunables. The zero value is not usable; construct via
// NewClassifier.
type Classifier struct {
	FuzzyThreshold   float64
	LateAfterMinutes int
}

func NewClassifier() *Classifier {
	return &Classifier{
		FuzzyThreshold:   DefaultFuzzyThreshold,
		LateAfterMinutes: DefaultLateAfterMinutes,
	}
}

// Classify returns entry ID -> status for one day's entries. nowMinutes is
// minutes elapsed since that day's midnight: for a past day it exceeds the
// day's end, and for a future day it is negative so nothing is marked late.
//
// A paid entry is completed. An unpaid entry whose patient name matches a
// paid entry's name (same patient paying once for several lines) is also
// completed. Otherwise it is late once the scheduled start is more than
// LateAfterMinutes in the past, and pending until then. The result depends
// only on the inputs, so re-running it over stored rows is safe.
func (c *Classifier) Classify(entries []Entry, nowMinutes int) map[string]string {
	paidNames := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Paid {
			paidNames = append(paidNames, normalizeName(e.PatientName))
		}
	}

	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.ID] = c.status(e, paidNames, nowMinutes)
	}
	return out
}

func (c *Classifier) status(e Entry, paidNames []string, nowMinutes int) string {
	if e.Paid {
		return StatusCompleted
	}
	name := normalizeName(e.PatientName)
	if name != "" {
		for _, rule := range matchRules {
			for _, paid := range paidNames {
				if rule(c, name, paid) {
					return StatusCompleted
				}
			}
		}
	}
	if nowMinutes >= 0 && nowMinutes-e.StartMinutes > c.LateAfterMinutes {
		return StatusLate
	}
	return StatusPending
}
