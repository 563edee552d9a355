package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt with a configurable work factor. The digest never
// leaves this package in cleartext form and comparison does not leak where
// the first mismatching byte sits.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher constructs a Hasher, clamping the cost to bcrypt's valid window.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	// Compared against when no account matches a login, so an unknown
	// login costs the same as a wrong password.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("clubcore-dummy-credential"), cost)
	return &Hasher{cost: cost, dummy: dummy}
}

// Hash produces a salted digest of the secret.
func (h *Hasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the secret matches the digest.
func (h *Hasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}

// Burn runs one comparison that always fails.
func (h *Hasher) Burn(secret string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(secret))
}
