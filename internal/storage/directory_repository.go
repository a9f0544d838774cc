package storage

import (
	"context"

	"github.com/clinicflow/clinicflow/internal/model"
	"github.com/clinicflow/clinicflow/libs/db"
)

// DirectoryRepository serves the reference tables the journal is built from:
// centers, clinics, doctors, the price list and payment methods.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) ListCenters(ctx context.Context) ([]model.Center, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, COALESCE(address, ''), archived
		FROM centers
		WHERE NOT archived
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var centers []model.Center
	for rows.Next() {
		var c model.Center
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Archived); err != nil {
			return nil, err
		}
		centers = append(centers, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return centers, nil
}

func (r *DirectoryRepository) GetCenter(ctx context.Context, id string) (model.Center, error) {
	var c model.Center
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, COALESCE(address, ''), archived
		FROM centers
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Address, &c.Archived)
	if err != nil {
		return model.Center{}, err
	}
	return c, nil
}

func (r *DirectoryRepository) CreateCenter(ctx context.Context, c model.Center) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO centers (name, address)
		VALUES ($1, $2)
		RETURNING id::text
	`, c.Name, c.Address).Scan(&id)
	return id, err
}

func (r *DirectoryRepository) ListClinics(ctx context.Context) ([]model.Clinic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name FROM clinics ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []model.Clinic
	for rows.Next() {
		var c model.Clinic
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		clinics = append(clinics, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return clinics, nil
}

func (r *DirectoryRepository) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, role, archived
		FROM doctors
		WHERE NOT archived
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Role, &d.Archived); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return doctors, nil
}

func (r *DirectoryRepository) CreateDoctor(ctx context.Context, d model.Doctor) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO doctors (name, role)
		VALUES ($1, $2)
		RETURNING id::text
	`, d.Name, d.Role).Scan(&id)
	return id, err
}

func (r *DirectoryRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, price, additional, archived
		FROM services
		WHERE NOT archived
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.Additional, &s.Archived); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func (r *DirectoryRepository) CreateService(ctx context.Context, s model.Service) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (name, price, additional)
		VALUES ($1, $2, $3)
		RETURNING id::text
	`, s.Name, s.Price, s.Additional).Scan(&id)
	return id, err
}

// ServicesByIDs returns the named services in no particular order; callers
// price visits from the result.
func (r *DirectoryRepository) ServicesByIDs(ctx context.Context, ids []string) ([]model.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, price, additional, archived
		FROM services
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.Additional, &s.Archived); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func (r *DirectoryRepository) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, name, billable FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []model.PaymentMethod
	for rows.Next() {
		var m model.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Billable); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return methods, nil
}

func (r *DirectoryRepository) GetPaymentMethod(ctx context.Context, id string) (model.PaymentMethod, error) {
	var m model.PaymentMethod
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, billable
		FROM payment_methods
		WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Billable)
	if err != nil {
		return model.PaymentMethod{}, err
	}
	return m, nil
}

func (r *DirectoryRepository) CreatePaymentMethod(ctx context.Context, m model.PaymentMethod) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payment_methods (name, billable)
		VALUES ($1, $2)
		RETURNING id::text
	`, m.Name, m.Billable).Scan(&id)
	return id, err
}
