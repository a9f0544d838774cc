package notifications

import (
	"context"

	"github.com/clinicflow/clinicflow/libs/db"
)

type Notification struct {
	AppointmentID string
	Channel       string
	Recipient     string
	Payload       []byte
	Status        string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, channel, recipient, payload, status)
		VALUES ($1, $2, $3, $4, $5)
	`, n.AppointmentID, n.Channel, n.Recipient, n.Payload, n.Status)
	return err
}
