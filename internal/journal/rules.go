package journal

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// A matchRule decides whether an unpaid entry's patient name and one paid
// entry's patient name refer to the same person. Rules run in order; the
// first hit wins.
type matchRule func(c *Classifier, name, paidName string) bool

var matchRules = []matchRule{
	exactMatch,
	prefixMatch,
	surnameInitialMatch,
	fuzzyMatch,
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func exactMatch(_ *Classifier, name, paidName string) bool {
	return name == paidName
}

// prefixMatch covers the journal habit of registering the paid line with the
// full name and the visit line with a shortened one.
func prefixMatch(_ *Classifier, name, paidName string) bool {
	return name != "" && strings.HasPrefix(paidName, name)
}

// surnameInitialMatch: same surname token, and either the unpaid side only
// recorded a surname, or the given-name token of one side is a prefix of the
// other's ("ivanov i" vs "ivanov ivan").
func surnameInitialMatch(_ *Classifier, name, paidName string) bool {
	a := strings.Fields(name)
	b := strings.Fields(paidName)
	if len(a) == 0 || len(b) == 0 || a[0] != b[0] {
		return false
	}
	if len(a) == 1 {
		return true
	}
	if len(b) < 2 {
		return false
	}
	// "P." and "Pavel" should match, so dotted initials lose the dot first.
	an := strings.TrimSuffix(a[1], ".")
	bn := strings.TrimSuffix(b[1], ".")
	if an == "" || bn == "" {
		return false
	}
	return strings.HasPrefix(an, bn) || strings.HasPrefix(bn, an)
}

func fuzzyMatch(c *Classifier, name, paidName string) bool {
	a := splitChars(strings.ReplaceAll(name, " ", ""))
	b := splitChars(strings.ReplaceAll(paidName, " ", ""))
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return difflib.NewMatcher(a, b).Ratio() > c.FuzzyThreshold
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
