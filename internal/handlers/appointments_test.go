package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicflow/clinicflow/internal/journal"
	"github.com/clinicflow/clinicflow/internal/model"
	"github.com/clinicflow/clinicflow/libs/auth"
)

func TestClassifyByDayElapsedSpansDays(t *testing.T) {
	appts := []model.Appointment{
		{ID: "yesterday", Date: "2026-03-01", Time: "09:00", PatientName: "Ivanov Ivan"},
		{ID: "today", Date: "2026-03-02", Time: "09:00", PatientName: "Petrov Petr"},
		{ID: "tomorrow", Date: "2026-03-03", Time: "09:00", PatientName: "Sidorov Pavel"},
	}

	statuses := classifyByDay(journal.NewClassifier(), appts, "2026-03-02", 12*60)
	assert.Equal(t, journal.StatusLate, statuses["yesterday"], "unmatched entries from past days are late")
	assert.Equal(t, journal.StatusLate, statuses["today"])
	assert.Equal(t, journal.StatusPending, statuses["tomorrow"], "future days never go late")
}

func TestRelativeClock(t *testing.T) {
	assert.Equal(t, 12*60, relativeClock("2026-03-02", "2026-03-02", 12*60))
	assert.Equal(t, 12*60+minutesPerDay, relativeClock("2026-03-01", "2026-03-02", 12*60))
	assert.Equal(t, 12*60-minutesPerDay, relativeClock("2026-03-03", "2026-03-02", 12*60))
	assert.Equal(t, -1, relativeClock("garbage", "2026-03-02", 12*60))
}

func TestClassifyByDayLateCutoffCrossesMidnight(t *testing.T) {
	appts := []model.Appointment{
		{ID: "just-finished", Date: "2026-03-01", Time: "23:50", PatientName: "Ivanov Ivan"},
	}

	// 00:10 the next day: only 20 minutes past the 23:50 start.
	statuses := classifyByDay(journal.NewClassifier(), appts, "2026-03-02", 10)
	assert.Equal(t, journal.StatusPending, statuses["just-finished"])
}

func TestClassifyByDayPaidMatchDoesNotCrossDays(t *testing.T) {
	paid := "pm-1"
	appts := []model.Appointment{
		{ID: "paid", Date: "2026-03-01", Time: "09:00", PatientName: "Ivanov Ivan", PaymentMethodID: &paid},
		{ID: "same-day", Date: "2026-03-01", Time: "10:00", PatientName: "Ivanov Ivan"},
		{ID: "other-day", Date: "2026-03-02", Time: "10:00", PatientName: "Ivanov Ivan"},
	}

	statuses := classifyByDay(journal.NewClassifier(), appts, "2026-02-01", 0)
	assert.Equal(t, journal.StatusCompleted, statuses["paid"])
	assert.Equal(t, journal.StatusCompleted, statuses["same-day"])
	assert.Equal(t, journal.StatusPending, statuses["other-day"])
}

func TestBuildAppointmentRejectsNegativeDiscount(t *testing.T) {
	h := &AppointmentHandler{}
	req := &appointmentRequest{
		Date:        "2026-03-02",
		Time:        "09:00",
		PatientName: "Ivanov Ivan",
		Discount:    -100,
	}

	_, status, err := h.buildAppointment(context.Background(), &auth.Claims{Role: "admin"}, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, err.Error(), "discount")
}

func TestRedactForViewer(t *testing.T) {
	a := model.Appointment{AuthorID: "author-1"}

	assert.False(t, redactForViewer(&auth.Claims{Sub: "author-1", Role: "org"}, a))
	assert.True(t, redactForViewer(&auth.Claims{Sub: "someone-else", Role: "org"}, a))
	assert.False(t, redactForViewer(&auth.Claims{Sub: "someone-else", Role: "admin"}, a))
}

func TestRedactedItemHidesPatientFields(t *testing.T) {
	a := model.Appointment{
		ID:             "a1",
		PatientName:    "Ivanov Ivan",
		PatientPhone:   "+70000000000",
		ContractNumber: "C-42",
		Comment:        "follow-up",
		CreatedAt:      time.Now(),
	}
	item := toItem(a, "", true)
	assert.Empty(t, item.PatientName)
	assert.Empty(t, item.PatientPhone)
	assert.Empty(t, item.ContractNumber)
	assert.Empty(t, item.Comment)
	assert.True(t, item.Redacted)
}

func TestOverlapBypassAllowed(t *testing.T) {
	assert.True(t, overlapBypassAllowed("admin"))
	assert.True(t, overlapBypassAllowed("lab_tech"))
	assert.False(t, overlapBypassAllowed("org"))
	assert.False(t, overlapBypassAllowed("doctor"))
}

func TestToBookingsSkipsUnparseableTimes(t *testing.T) {
	appts := []model.Appointment{
		{ID: "ok", Time: "09:30", DurationMinutes: 30},
		{ID: "bad", Time: "garbage"},
	}
	bookings := toBookings(appts)
	assert.Len(t, bookings, 1)
	assert.Equal(t, "ok", bookings[0].ID)
	assert.Equal(t, 9*60+30, bookings[0].StartMinutes)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-02")
	assert.NoError(t, err)
	assert.Equal(t, "2026-03-02", got)

	_, err = parseDate("02.03.2026")
	assert.Error(t, err)
}
