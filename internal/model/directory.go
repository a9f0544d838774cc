package model

import "time"

type Center struct {
	ID       string
	Name     string
	Address  string
	Archived bool
}

type Clinic struct {
	ID   string
	Name string
}

type Doctor struct {
	ID       string
	Name     string
	Role     string
	Archived bool
}

type Service struct {
	ID         string
	Name       string
	Price      int
	Additional bool
	Archived   bool
}

type PaymentMethod struct {
	ID       string
	Name     string
	Billable bool
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CenterID     *string
	CreatedAt    time.Time
}

type Notification struct {
	ID            string
	AppointmentID string
	Channel       string
	Recipient     string
	Status        string
	CreatedAt     time.Time
}
