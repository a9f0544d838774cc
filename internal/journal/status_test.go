package journal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func classify(t *testing.T, entries []Entry, now int) map[string]string {
	t.Helper()
	return NewClassifier().Classify(entries, now)
}

func TestPaidIsCompleted(t *testing.T) {
	got := classify(t, []Entry{{ID: "a", PatientName: "Ivanov Ivan", Paid: true, StartMinutes: 600}}, 1400)
	assert.Equal(t, StatusCompleted, got["a"])
}

func TestExactNameMatchCaseInsensitive(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "  IVANOV IVAN ", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "ivanov ivan", StartMinutes: 600},
	}, 1400)
	assert.Equal(t, StatusCompleted, got["visit"])
}

func TestPrefixMatch(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Petrova Anna Sergeevna", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "Petrova Anna", StartMinutes: 600},
	}, 1400)
	assert.Equal(t, StatusCompleted, got["visit"])
}

func TestSurnameInitialMatch(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Sidorov Pavel", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "Sidorov P", StartMinutes: 600},
	}, 1400)
	assert.Equal(t, StatusCompleted, got["visit"])
}

func TestSurnameDottedInitialMatch(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Sidorov Pavel", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "Sidorov P.", StartMinutes: 600},
	}, 1400)
	assert.Equal(t, StatusCompleted, got["visit"])
}

func TestSurnameOnlyMatch(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Sidorov Pavel", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "Sidorov", StartMinutes: 600},
	}, 1400)
	assert.Equal(t, StatusCompleted, got["visit"])
}

func TestFuzzyMatchTypo(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Kuznetsova Ekaterina", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "Kuznetsova Ekatarina", StartMinutes: 600},
	}, 1400)
	assert.Equal(t, StatusCompleted, got["visit"])
}

func TestUnrelatedNameNotMatched(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Ivanov Ivan", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "Smirnova Olga", StartMinutes: 1500},
	}, 1400)
	assert.Equal(t, StatusPending, got["visit"])
}

func TestLateCutoff(t *testing.T) {
	entries := []Entry{{ID: "a", PatientName: "Ivanov Ivan", StartMinutes: 600}}

	assert.Equal(t, StatusPending, classify(t, entries, 625)["a"], "exactly at cutoff stays pending")
	assert.Equal(t, StatusLate, classify(t, entries, 626)["a"])
}

func TestFutureDaysNeverLate(t *testing.T) {
	got := classify(t, []Entry{{ID: "a", PatientName: "Ivanov Ivan", StartMinutes: 600}}, -1)
	assert.Equal(t, StatusPending, got["a"])
}

func TestPastDaysGoLate(t *testing.T) {
	got := classify(t, []Entry{{ID: "a", PatientName: "Ivanov Ivan", StartMinutes: 540}}, 540+24*60)
	assert.Equal(t, StatusLate, got["a"])
}

func TestEmptyNameNeverMatchesPaid(t *testing.T) {
	got := classify(t, []Entry{
		{ID: "paid", PatientName: "Ivanov Ivan", Paid: true, StartMinutes: 540},
		{ID: "visit", PatientName: "   ", StartMinutes: 1500},
	}, 1400)
	assert.Equal(t, StatusPending, got["visit"])
}

func TestClassifyIdempotent(t *testing.T) {
	entries := []Entry{
		{ID: "paid", PatientName: "Ivanov Ivan", Paid: true, StartMinutes: 540},
		{ID: "v1", PatientName: "Ivanov Ivan", StartMinutes: 600},
		{ID: "v2", PatientName: "Smirnova Olga", StartMinutes: 300},
	}
	first := classify(t, entries, 700)
	second := classify(t, entries, 700)
	assert.Equal(t, first, second)
	assert.Equal(t, StatusLate, first["v2"])
}
