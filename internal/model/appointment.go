package model

import "time"

type Appointment struct {
	ID              string
	Date            string // YYYY-MM-DD
	Time            string // HH:MM
	DurationMinutes int
	CenterID        *string
	ClinicID        *string
	DoctorID        *string
	PatientName     string
	PatientPhone    string
	Service         string
	Quantity        int
	Cost            int
	Discount        int
	ContractNumber  string
	Comment         string
	IsChild         bool
	IgnoreOverlap   bool
	PaymentMethodID *string
	AuthorID        string
	AuthorRole      string
	CreatedAt       time.Time
}

// Paid reports whether the visit has been registered at the till.
func (a *Appointment) Paid() bool {
	return a.PaymentMethodID != nil && *a.PaymentMethodID != ""
}
