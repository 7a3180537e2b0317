package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CredentialRecord is the stored identity row, password digest included.
// It stays inside the persistence and authentication layers.
type CredentialRecord struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public strips the digest.
func (r CredentialRecord) Public() User {
	return User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// UserRepository defines persistence operations for credentials.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*CredentialRecord, error)
	// FindByIdentifier matches username or email exactly.
	FindByIdentifier(ctx context.Context, identifier string) (*CredentialRecord, error)
	Create(ctx context.Context, username, email, passwordHash string, role Role) (int64, error)
	Exists(ctx context.Context, username, email string) (bool, error)
}

// PgUserRepository implements UserRepository on Postgres.
type PgUserRepository struct {
	db DBTX
}

func NewPgUserRepository(db DBTX) *PgUserRepository {
	return &PgUserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*CredentialRecord, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PgUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*CredentialRecord, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username=$1 OR email=$1 LIMIT 1`
	return r.scanOne(r.db.QueryRow(ctx, q, identifier))
}

func (r *PgUserRepository) Create(ctx context.Context, username, email, passwordHash string, role Role) (int64, error) {
	const q = `INSERT INTO users (username, email, password_hash, role) VALUES ($1,$2,$3,$4) RETURNING id`
	var id int64
	if err := r.db.QueryRow(ctx, q, username, email, passwordHash, role.String()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PgUserRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	const q = `SELECT 1 FROM users WHERE username=$1 OR email=$2 LIMIT 1`
	var one int
	if err := r.db.QueryRow(ctx, q, username, email).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PgUserRepository) scanOne(row pgx.Row) (*CredentialRecord, error) {
	var (
		u    CredentialRecord
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	parsed, err := ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	u.Role = parsed
	return &u, nil
}
