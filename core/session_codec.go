package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLen = 32

// Secrets that ship as examples or defaults somewhere and must never sign production tokens.
var placeholderSecrets = []string{
	"secret",
	"secretkey",
	"changeme",
	"change-this-session-key",
	"change-this-jwt-secret",
	"change-this-csrf-secret",
	"your-secret-key-change-in-production",
}

// SessionConfig is the immutable input of a SessionCodec.
type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// SessionCodec mints and verifies signed session tokens (HS256 JWT).
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSessionCodec validates the secret and returns a codec. An empty, placeholder
// or short secret yields ErrMisconfiguredSecret.
func NewSessionCodec(cfg SessionConfig) (*SessionCodec, error) {
	if err := checkSecret(cfg.Secret); err != nil {
		return nil, err
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("session ttl must not be negative: %s", cfg.TTL)
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &SessionCodec{
		secret: secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

func checkSecret(secret []byte) error {
	s := strings.TrimSpace(string(secret))
	if s == "" {
		return fmt.Errorf("%w: empty", ErrMisconfiguredSecret)
	}
	lower := strings.ToLower(s)
	for _, p := range placeholderSecrets {
		if lower == p {
			return fmt.Errorf("%w: placeholder value", ErrMisconfiguredSecret)
		}
	}
	if len(secret) < minSecretLen {
		return fmt.Errorf("%w: must be at least %d bytes", ErrMisconfiguredSecret, minSecretLen)
	}
	return nil
}

// TTL is the fixed session lifetime.
func (c *SessionCodec) TTL() time.Duration { return c.ttl }

// NewSubject builds the subject for a freshly authenticated user.
func (c *SessionCodec) NewSubject(u User) SessionSubject {
	issued := time.Unix(c.now().Unix(), 0).UTC()
	return SessionSubject{
		UserID:    u.ID,
		Identity:  u.Username,
		Role:      u.Role,
		TokenID:   uuid.NewString(),
		IssuedAt:  issued,
		ExpiresAt: issued.Add(c.ttl),
	}
}

// Encode signs subject into a compact token.
func (c *SessionCodec) Encode(s SessionSubject) (string, error) {
	if !s.Role.Valid() {
		return "", fmt.Errorf("encode session: invalid role %d", s.Role)
	}
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.UserID, 10),
			ID:        s.TokenID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		Username: s.Identity,
		Role:     s.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Decode verifies token and returns its subject. Any failure, including
// expiry, wraps ErrTokenInvalid.
func (c *SessionCodec) Decode(token string) (SessionSubject, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)

	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return SessionSubject{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return SessionSubject{}, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return SessionSubject{}, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}
	if !claims.Role.Valid() || claims.IssuedAt == nil {
		return SessionSubject{}, fmt.Errorf("%w: missing claims", ErrTokenInvalid)
	}

	return SessionSubject{
		UserID:    userID,
		Identity:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}
