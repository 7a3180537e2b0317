package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Authenticator verifies identifier/password pairs against the user directory.
type Authenticator struct {
	users   UserRepository
	hasher  *PasswordHasher
	codec   *SessionCodec
	metrics *Metrics
	log     *slog.Logger

	// dummy is verified against when the identifier matches nothing, so an
	// unknown user costs the same bcrypt work as a wrong password.
	dummy string
}

func NewAuthenticator(users UserRepository, hasher *PasswordHasher, codec *SessionCodec, metrics *Metrics, logger *slog.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := hasher.dummyDigest()
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		users:   users,
		hasher:  hasher,
		codec:   codec,
		metrics: metrics,
		log:     logger,
		dummy:   dummy,
	}, nil
}

// Authenticate returns the public user and a fresh session subject on success.
// Unknown identifiers and wrong passwords both yield ErrInvalidCredentials;
// any other error is an infrastructure failure.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (User, SessionSubject, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		a.reject(ctx)
		return User{}, SessionSubject{}, ErrInvalidCredentials
	}

	rec, err := a.users.FindByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, ErrNotFound) {
		a.metrics.loginAttempt("error")
		return User{}, SessionSubject{}, fmt.Errorf("lookup credential: %w", err)
	}

	digest := a.dummy
	if rec != nil {
		digest = rec.PasswordHash
	}

	start := time.Now()
	ok, verr := a.hasher.Verify(ctx, password, digest)
	a.metrics.observeVerify(time.Since(start))
	if verr != nil {
		a.metrics.loginAttempt("error")
		return User{}, SessionSubject{}, fmt.Errorf("verify password: %w", verr)
	}
	if rec == nil || !ok {
		a.reject(ctx)
		return User{}, SessionSubject{}, ErrInvalidCredentials
	}

	user := rec.Public()
	a.metrics.loginAttempt("success")
	a.log.InfoContext(ctx, "login accepted", "user_id", user.ID, "role", user.Role.String())
	return user, a.codec.NewSubject(user), nil
}

func (a *Authenticator) reject(ctx context.Context) {
	a.metrics.loginAttempt("rejected")
	a.log.InfoContext(ctx, "login rejected")
}
