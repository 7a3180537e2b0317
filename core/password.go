package core

import (
	"context"
	"crypto/rand"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost matches the cost used by the existing credential rows.
const DefaultBcryptCost = 12

// PasswordHasher hashes and verifies passwords with bcrypt. The number of
// hash operations running at once is bounded so a login flood cannot pin
// every CPU.
type PasswordHasher struct {
	cost  int
	slots *semaphore.Weighted
}

// NewPasswordHasher builds a hasher. Out-of-range cost falls back to DefaultBcryptCost,
// non-positive concurrency to the number of CPUs.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &PasswordHasher{cost: cost, slots: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a salted bcrypt digest of plaintext.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.slots.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// maxPasswordBytes is the bcrypt input limit. Longer input would be compared
// on its prefix only, so it never verifies.
const maxPasswordBytes = 72

// Verify reports whether plaintext matches digest. A malformed digest or an
// over-long plaintext is a mismatch, not an error; the only error is failing
// to get a hash slot.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if len(plaintext) > maxPasswordBytes {
		return false, nil
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil, nil
}

// dummyDigest hashes random bytes at the configured cost. It never matches a real password.
func (h *PasswordHasher) dummyDigest() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("dummy digest: %w", err)
	}
	digest, err := bcrypt.GenerateFromPassword(buf, h.cost)
	if err != nil {
		return "", fmt.Errorf("dummy digest: %w", err)
	}
	return string(digest), nil
}
