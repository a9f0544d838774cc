package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicflow/clinicflow/internal/model"
	"github.com/clinicflow/clinicflow/libs/db"
)

const appointmentColumns = `
	id::text, date::text, start_time, duration_minutes,
	center_id::text, clinic_id::text, doctor_id::text,
	patient_name, patient_phone, service, quantity, cost, discount,
	COALESCE(contract_number, ''), COALESCE(comment, ''), is_child, ignore_overlap,
	payment_method_id::text, author_id::text, author_role, created_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.Date,
		&a.Time,
		&a.DurationMinutes,
		&a.CenterID,
		&a.ClinicID,
		&a.DoctorID,
		&a.PatientName,
		&a.PatientPhone,
		&a.Service,
		&a.Quantity,
		&a.Cost,
		&a.Discount,
		&a.ContractNumber,
		&a.Comment,
		&a.IsChild,
		&a.IgnoreOverlap,
		&a.PaymentMethodID,
		&a.AuthorID,
		&a.AuthorRole,
		&a.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// ListForDayForUpdate locks the day's schedule for one center so a concurrent
// booking cannot slip between the overlap check and the insert.
func (r *AppointmentRepository) ListForDayForUpdate(ctx context.Context, tx pgx.Tx, date, centerID string) ([]model.Appointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND center_id = $2
		ORDER BY start_time
		FOR UPDATE
	`, date, centerID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) ListForDay(ctx context.Context, date, centerID string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND center_id = $2
		ORDER BY start_time
	`, date, centerID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// ListRange returns appointments between two dates inclusive, optionally
// scoped to one center, ordered for journal display.
func (r *AppointmentRepository) ListRange(ctx context.Context, startDate, endDate string, centerID *string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date >= $1 AND date <= $2
			AND ($3::uuid IS NULL OR center_id = $3)
		ORDER BY date, start_time, created_at
	`, startDate, endDate, centerID)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	return tx.QueryRow(ctx, `
		INSERT INTO appointments
			(date, start_time, duration_minutes, center_id, clinic_id, doctor_id,
			 patient_name, patient_phone, service, quantity, cost, discount,
			 contract_number, comment, is_child, ignore_overlap, payment_method_id, author_id, author_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id::text, created_at
	`, a.Date, a.Time, a.DurationMinutes, a.CenterID, a.ClinicID, a.DoctorID,
		a.PatientName, a.PatientPhone, a.Service, a.Quantity, a.Cost, a.Discount,
		a.ContractNumber, a.Comment, a.IsChild, a.IgnoreOverlap, a.PaymentMethodID, a.AuthorID, a.AuthorRole,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *AppointmentRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET date = $2,
			start_time = $3,
			duration_minutes = $4,
			center_id = $5,
			clinic_id = $6,
			doctor_id = $7,
			patient_name = $8,
			patient_phone = $9,
			service = $10,
			quantity = $11,
			cost = $12,
			discount = $13,
			contract_number = $14,
			comment = $15,
			is_child = $16,
			ignore_overlap = $17,
			payment_method_id = $18
		WHERE id = $1
	`, a.ID, a.Date, a.Time, a.DurationMinutes, a.CenterID, a.ClinicID, a.DoctorID,
		a.PatientName, a.PatientPhone, a.Service, a.Quantity, a.Cost, a.Discount,
		a.ContractNumber, a.Comment, a.IsChild, a.IgnoreOverlap, a.PaymentMethodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type PatientHit struct {
	Name  string
	Phone string
}

// SearchPatients looks up distinct patients previously seen in the journal,
// by name or phone substring.
func (r *AppointmentRepository) SearchPatients(ctx context.Context, q string, limit int) ([]PatientHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT patient_name, patient_phone
		FROM appointments
		WHERE patient_name ILIKE '%' || $1 || '%'
			OR patient_phone LIKE '%' || $1 || '%'
		ORDER BY patient_name
		LIMIT $2
	`, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []PatientHit
	for rows.Next() {
		var h PatientHit
		if err := rows.Scan(&h.Name, &h.Phone); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return hits, nil
}

// IsConflict reports an exclusion-constraint violation, the database-level
// backstop behind the schedule overlap check.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
