package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clinicflow/clinicflow/internal/billing"
	"github.com/clinicflow/clinicflow/internal/journal"
	"github.com/clinicflow/clinicflow/internal/model"
	"github.com/clinicflow/clinicflow/internal/outbox"
	"github.com/clinicflow/clinicflow/internal/schedule"
	"github.com/clinicflow/clinicflow/internal/storage"
	"github.com/clinicflow/clinicflow/libs/auth"
)

type AppointmentHandler struct {
	appointments *storage.AppointmentRepository
	directory    *storage.DirectoryRepository
	outboxRepo   *outbox.Repository
	classifier   *journal.Classifier
	logger       *slog.Logger
	loc          *time.Location
	now          func() time.Time
}

func NewAppointmentHandler(
	appointments *storage.AppointmentRepository,
	directory *storage.DirectoryRepository,
	outboxRepo *outbox.Repository,
	classifier *journal.Classifier,
	logger *slog.Logger,
	loc *time.Location,
) *AppointmentHandler {
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentHandler{
		appointments: appointments,
		directory:    directory,
		outboxRepo:   outboxRepo,
		classifier:   classifier,
		logger:       logger,
		loc:          loc,
		now:          time.Now,
	}
}

type appointmentRequest struct {
	Date                 string   `json:"date"`
	Time                 string   `json:"time"`
	IsDoubleTime         bool     `json:"is_double_time"`
	CenterID             *string  `json:"center_id"`
	ClinicID             *string  `json:"clinic_id"`
	DoctorID             *string  `json:"doctor_id"`
	PatientName          string   `json:"patient_name"`
	PatientPhone         string   `json:"patient_phone"`
	ServiceIDs           []string `json:"service_ids"`
	AdditionalServiceIDs []string `json:"additional_service_ids"`
	Quantity             int      `json:"quantity"`
	AdditionalQuantity   int      `json:"additional_quantity"`
	Discount             int      `json:"discount"`
	ContractNumber       string   `json:"contract_number"`
	Comment              string   `json:"comment"`
	IsChild              bool     `json:"is_child"`
	PaymentMethodID      *string  `json:"payment_method_id"`
	IgnoreOverlap        bool     `json:"ignore_overlap"`
}

type appointmentItem struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"duration_minutes"`
	CenterID        *string `json:"center_id,omitempty"`
	ClinicID        *string `json:"clinic_id,omitempty"`
	DoctorID        *string `json:"doctor_id,omitempty"`
	PatientName     string  `json:"patient_name"`
	PatientPhone    string  `json:"patient_phone"`
	Service         string  `json:"service,omitempty"`
	Quantity        int     `json:"quantity"`
	Cost            int     `json:"cost"`
	Discount        int     `json:"discount"`
	ContractNumber  string  `json:"contract_number,omitempty"`
	Comment         string  `json:"comment,omitempty"`
	IsChild         bool    `json:"is_child"`
	PaymentMethodID *string `json:"payment_method_id,omitempty"`
	AuthorID        string  `json:"author_id"`
	Status          string  `json:"status,omitempty"`
	Redacted        bool    `json:"redacted,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toItem(a model.Appointment, status string, redacted bool) appointmentItem {
	item := appointmentItem{
		ID:              a.ID,
		Date:            a.Date,
		Time:            a.Time,
		DurationMinutes: a.DurationMinutes,
		CenterID:        a.CenterID,
		ClinicID:        a.ClinicID,
		DoctorID:        a.DoctorID,
		PatientName:     a.PatientName,
		PatientPhone:    a.PatientPhone,
		Service:         a.Service,
		Quantity:        a.Quantity,
		Cost:            a.Cost,
		Discount:        a.Discount,
		ContractNumber:  a.ContractNumber,
		Comment:         a.Comment,
		IsChild:         a.IsChild,
		PaymentMethodID: a.PaymentMethodID,
		AuthorID:        a.AuthorID,
		Status:          status,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if redacted {
		item.PatientName = ""
		item.PatientPhone = ""
		item.ContractNumber = ""
		item.Comment = ""
		item.Redacted = true
	}
	return item
}

// redactForViewer hides patient details of other authors' entries from org
// partners. They still see the slot as occupied.
func redactForViewer(claims *auth.Claims, a model.Appointment) bool {
	return claims.Role == "org" && a.AuthorID != claims.Sub
}

// overlapBypassAllowed: the bulk journal paths (front desk, lab batches) may
// intentionally double-book; nobody else gets to skip the check.
func overlapBypassAllowed(role string) bool {
	return role == "admin" || role == "lab_tech"
}

func toBookings(appts []model.Appointment) []schedule.Booking {
	bookings := make([]schedule.Booking, 0, len(appts))
	for _, a := range appts {
		start, err := schedule.ParseTimeOfDay(a.Time)
		if err != nil {
			continue
		}
		bookings = append(bookings, schedule.Booking{
			ID:              a.ID,
			StartMinutes:    start,
			DurationMinutes: a.DurationMinutes,
		})
	}
	return bookings
}

// classifyByDay runs the status classifier per calendar day. The clock each
// day sees is the elapsed time since that day's midnight, so an unmatched
// entry from a previous day reads as late while future days stay pending.
func classifyByDay(c *journal.Classifier, appts []model.Appointment, today string, nowMinutes int) map[string]string {
	byDay := make(map[string][]journal.Entry)
	for _, a := range appts {
		start, err := schedule.ParseTimeOfDay(a.Time)
		if err != nil {
			start = 0
		}
		byDay[a.Date] = append(byDay[a.Date], journal.Entry{
			ID:           a.ID,
			PatientName:  a.PatientName,
			Paid:         a.Paid(),
			StartMinutes: start,
		})
	}

	out := make(map[string]string, len(appts))
	for day, entries := range byDay {
		for id, status := range c.Classify(entries, relativeClock(day, today, nowMinutes)) {
			out[id] = status
		}
	}
	return out
}

const minutesPerDay = 24 * 60

// relativeClock converts the current wall clock into minutes since the given
// day's midnight. Past days yield values beyond the day's end, future days
// yield negative values.
func relativeClock(day, today string, nowMinutes int) int {
	if day == today {
		return nowMinutes
	}
	d, errDay := time.Parse("2006-01-02", day)
	t, errToday := time.Parse("2006-01-02", today)
	if errDay != nil || errToday != nil {
		return -1
	}
	return nowMinutes + int(t.Sub(d).Hours()/24)*minutesPerDay
}

func (h *AppointmentHandler) localNow() (today string, nowMinutes int) {
	now := h.now().In(h.loc)
	return now.Format("2006-01-02"), now.Hour()*60 + now.Minute()
}

func (h *AppointmentHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	centerID := strings.TrimSpace(r.URL.Query().Get("center_id"))
	if claims.Role == "lab_tech" && claims.CenterID != "" {
		centerID = claims.CenterID
	}
	if centerID == "" {
		writeError(w, http.StatusBadRequest, "center_id required")
		return
	}
	excludeID := strings.TrimSpace(r.URL.Query().Get("exclude_id"))

	existing, err := h.appointments.ListForDay(r.Context(), date, centerID)
	if err != nil {
		h.logger.Error("list day failed", "err", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	slots := schedule.AvailableSlots(claims.Role, toBookings(existing), excludeID)
	writeJSON(w, http.StatusOK, slots)
}

func (h *AppointmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *AppointmentHandler) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "appointment id required")
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// buildAppointment validates the request body and prices the visit. The
// returned appointment carries everything except identity fields.
func (h *AppointmentHandler) buildAppointment(ctx context.Context, claims *auth.Claims, req *appointmentRequest) (*model.Appointment, int, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid date")
	}
	startMinutes, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid time")
	}
	req.PatientName = strings.TrimSpace(req.PatientName)
	if req.PatientName == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("patient_name required")
	}
	if req.Discount < 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("discount must be non-negative")
	}

	duration := schedule.DefaultDurationMinutes
	if req.IsDoubleTime {
		duration = 2 * schedule.DefaultDurationMinutes
	}

	centerID := req.CenterID
	if claims.Role == "lab_tech" && claims.CenterID != "" {
		pinned := claims.CenterID
		centerID = &pinned
	}

	billable := true
	if req.PaymentMethodID != nil && *req.PaymentMethodID != "" {
		method, err := h.directory.GetPaymentMethod(ctx, *req.PaymentMethodID)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, http.StatusBadRequest, fmt.Errorf("unknown payment method")
			}
			return nil, http.StatusInternalServerError, fmt.Errorf("db error")
		}
		billable = method.Billable
	} else {
		req.PaymentMethodID = nil
	}

	allIDs := append(append([]string{}, req.ServiceIDs...), req.AdditionalServiceIDs...)
	services, err := h.directory.ServicesByIDs(ctx, allIDs)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("db error")
	}
	byID := make(map[string]model.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	var names []string
	var servicePrices, additionalPrices []int
	for _, id := range req.ServiceIDs {
		s, ok := byID[id]
		if !ok {
			return nil, http.StatusBadRequest, fmt.Errorf("unknown service %s", id)
		}
		names = append(names, s.Name)
		servicePrices = append(servicePrices, s.Price)
	}
	for _, id := range req.AdditionalServiceIDs {
		s, ok := byID[id]
		if !ok {
			return nil, http.StatusBadRequest, fmt.Errorf("unknown service %s", id)
		}
		names = append(names, s.Name)
		additionalPrices = append(additionalPrices, s.Price)
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	return &model.Appointment{
		Date:            date,
		Time:            schedule.FormatTimeOfDay(startMinutes),
		DurationMinutes: duration,
		CenterID:        centerID,
		ClinicID:        req.ClinicID,
		DoctorID:        req.DoctorID,
		PatientName:     req.PatientName,
		PatientPhone:    strings.TrimSpace(req.PatientPhone),
		Service:         strings.Join(names, ", "),
		Quantity:        quantity,
		Cost:            billing.VisitCost(servicePrices, quantity, additionalPrices, req.AdditionalQuantity, req.Discount, billable),
		Discount:        req.Discount,
		ContractNumber:  strings.TrimSpace(req.ContractNumber),
		Comment:         strings.TrimSpace(req.Comment),
		IsChild:         req.IsChild,
		PaymentMethodID: req.PaymentMethodID,
	}, 0, nil
}

// checkOverlap locks the day's bookings for the center and runs the interval
// check. excludeID lets an edited appointment keep its own slot.
func (h *AppointmentHandler) checkOverlap(ctx context.Context, tx pgx.Tx, appt *model.Appointment, excludeID string) (int, error) {
	existing, err := h.appointments.ListForDayForUpdate(ctx, tx, appt.Date, *appt.CenterID)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("db error")
	}
	start, _ := schedule.ParseTimeOfDay(appt.Time)
	candidate := schedule.Booking{StartMinutes: start, DurationMinutes: appt.DurationMinutes}
	conflict := schedule.FindConflict(candidate, toBookings(existing), excludeID)
	if conflict == nil {
		return 0, nil
	}

	msg := fmt.Sprintf("time %s is already taken by appointment %s", schedule.FormatTimeOfDay(conflict.StartMinutes), conflict.BookingID)
	if center, err := h.directory.GetCenter(ctx, *appt.CenterID); err == nil && center.Name != "" {
		msg += " at " + center.Name
	}
	return http.StatusBadRequest, fmt.Errorf("%s", msg)
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx := r.Context()
	appt, status, err := h.buildAppointment(ctx, claims, &req)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	appt.AuthorID = claims.Sub
	appt.AuthorRole = claims.Role

	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bypass := req.IgnoreOverlap && overlapBypassAllowed(claims.Role)
	appt.IgnoreOverlap = bypass
	if appt.CenterID != nil && !bypass {
		if status, err := h.checkOverlap(ctx, tx, appt, ""); err != nil {
			writeError(w, status, err.Error())
			return
		}
	}

	if err := h.appointments.Create(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("time %s is already taken", appt.Time))
			return
		}
		h.logger.Error("appointment insert failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentBooked(appt)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("time %s is already taken", appt.Time))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	h.logger.Info("appointment booked", "appointment_id", appt.ID, "date", appt.Date, "time", appt.Time)
	writeJSON(w, http.StatusCreated, toItem(*appt, "", false))
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	today, nowMinutes := h.localNow()
	q := r.URL.Query()

	startDate := today
	if raw := q.Get("start_date"); raw != "" {
		var err error
		if startDate, err = parseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
	}
	endDate := startDate
	if raw := q.Get("end_date"); raw != "" {
		var err error
		if endDate, err = parseDate(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
	}
	if endDate < startDate {
		writeError(w, http.StatusBadRequest, "end_date before start_date")
		return
	}

	var centerID *string
	if raw := strings.TrimSpace(q.Get("center_id")); raw != "" {
		centerID = &raw
	}
	if claims.Role == "lab_tech" && claims.CenterID != "" {
		pinned := claims.CenterID
		centerID = &pinned
	}

	appts, err := h.appointments.ListRange(r.Context(), startDate, endDate, centerID)
	if err != nil {
		h.logger.Error("list range failed", "err", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	statuses := classifyByDay(h.classifier, appts, today, nowMinutes)
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toItem(a, statuses[a.ID], redactForViewer(claims, a)))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	appt, err := h.appointments.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	// Status needs the whole day as context for the paid-name matching.
	day, err := h.appointments.ListRange(r.Context(), appt.Date, appt.Date, appt.CenterID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	today, nowMinutes := h.localNow()
	statuses := classifyByDay(h.classifier, day, today, nowMinutes)

	writeJSON(w, http.StatusOK, toItem(appt, statuses[appt.ID], redactForViewer(claims, appt)))
}

func (h *AppointmentHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx := r.Context()
	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := h.appointments.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if claims.Role == "org" && current.AuthorID != claims.Sub {
		writeError(w, http.StatusForbidden, "not your appointment")
		return
	}

	appt, status, err := h.buildAppointment(ctx, claims, &req)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	appt.ID = current.ID
	appt.AuthorID = current.AuthorID
	appt.AuthorRole = current.AuthorRole
	appt.CreatedAt = current.CreatedAt

	rescheduled := appt.Date != current.Date ||
		appt.Time != current.Time ||
		appt.DurationMinutes != current.DurationMinutes ||
		!equalID(appt.CenterID, current.CenterID)

	bypass := req.IgnoreOverlap && overlapBypassAllowed(claims.Role)
	appt.IgnoreOverlap = bypass || current.IgnoreOverlap
	if rescheduled && appt.CenterID != nil && !bypass {
		if status, err := h.checkOverlap(ctx, tx, appt, appt.ID); err != nil {
			writeError(w, status, err.Error())
			return
		}
	}

	if err := h.appointments.Update(ctx, tx, appt); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("time %s is already taken", appt.Time))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentUpdated(appt)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("time %s is already taken", appt.Time))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	writeJSON(w, http.StatusOK, toItem(*appt, "", false))
}

func (h *AppointmentHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	ctx := r.Context()
	tx, err := h.appointments.Begin(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := h.appointments.GetForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if claims.Role != "admin" && current.AuthorID != claims.Sub {
		writeError(w, http.StatusForbidden, "not your appointment")
		return
	}

	if err := h.appointments.Delete(ctx, tx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.AppointmentCancelled(&current)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write outbox event")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AppointmentHandler) SearchPatients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 2 {
		writeError(w, http.StatusBadRequest, "query too short")
		return
	}

	hits, err := h.appointments.SearchPatients(r.Context(), q, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	type patientItem struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	items := make([]patientItem, 0, len(hits))
	for _, hit := range hits {
		items = append(items, patientItem{Name: hit.Name, Phone: hit.Phone})
	}
	writeJSON(w, http.StatusOK, items)
}

func equalID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
