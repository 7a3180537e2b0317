package core

import (
	"errors"
	"fmt"
	"time"
)

// Role is the coarse permission tag carried by a credential and its sessions.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// ParseRole converts the stored/wire form into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is the public projection of a credential. It never carries the password digest.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionSubject is the principal reconstructed from a session token on every request.
type SessionSubject struct {
	UserID    int64
	Identity  string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

var (
	// ErrInvalidCredentials is returned when identifier/password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid covers bad signatures, malformed tokens and expired tokens alike.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrUnauthorized means a session is required but none was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means a session is present but carries the wrong role.
	ErrForbidden = errors.New("forbidden")
	// ErrMisconfiguredSecret is fatal at startup: the signing secret is missing or guessable.
	ErrMisconfiguredSecret = errors.New("session signing secret is missing or insecure")
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	ErrUnknownRole = errors.New("unknown role")
)
