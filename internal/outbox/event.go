package outbox

import (
	"encoding/json"

	"github.com/clinicflow/clinicflow/internal/model"
)

// Event types double as Kafka topic names.
const (
	EventAppointmentBooked    = "clinic.appointment.booked.v1"
	EventAppointmentUpdated   = "clinic.appointment.updated.v1"
	EventAppointmentCancelled = "clinic.appointment.cancelled.v1"
)

// Event is the envelope written to the outbox table inside the same
// transaction as the journal change it describes.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

type appointmentPayload struct {
	AppointmentID string  `json:"appointment_id"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	CenterID      *string `json:"center_id,omitempty"`
	PatientName   string  `json:"patient_name"`
	PatientPhone  string  `json:"patient_phone"`
	Service       string  `json:"service,omitempty"`
}

func appointmentEvent(eventType string, a *model.Appointment) Event {
	payload, _ := json.Marshal(appointmentPayload{
		AppointmentID: a.ID,
		Date:          a.Date,
		Time:          a.Time,
		CenterID:      a.CenterID,
		PatientName:   a.PatientName,
		PatientPhone:  a.PatientPhone,
		Service:       a.Service,
	})
	return Event{
		AggregateType: "appointment",
		AggregateID:   a.ID,
		EventType:     eventType,
		Payload:       payload,
	}
}

func AppointmentBooked(a *model.Appointment) Event {
	return appointmentEvent(EventAppointmentBooked, a)
}

func AppointmentUpdated(a *model.Appointment) Event {
	return appointmentEvent(EventAppointmentUpdated, a)
}

func AppointmentCancelled(a *model.Appointment) Event {
	return appointmentEvent(EventAppointmentCancelled, a)
}
