package core

import (
	"context"
	"strings"
	"time"
)

type ContactSubmission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactRepository interface {
	Create(ctx context.Context, name, email string, phone *string, message string) (*ContactSubmission, error)
}

type PgContactRepository struct {
	db DBTX
}

func NewPgContactRepository(db DBTX) *PgContactRepository {
	return &PgContactRepository{db: db}
}

func (r *PgContactRepository) Create(ctx context.Context, name, email string, phone *string, message string) (*ContactSubmission, error) {
	c := ContactSubmission{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Phone:   phone,
		Message: strings.TrimSpace(message),
	}
	const q = `INSERT INTO contact_submissions (name, email, phone, message) VALUES ($1,$2,$3,$4) RETURNING id, status, created_at`
	if err := r.db.QueryRow(ctx, q, c.Name, c.Email, c.Phone, c.Message).Scan(&c.ID, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
