// Package auth holds the credential primitives used by the server: bcrypt
// hashing for passwords and recovery codes, OTP generation and signed
// session tokens.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces salted one-way hashes. Every Hash call uses a fresh salt,
// so hashing the same secret twice yields different strings.
type Hasher struct {
	cost  int
	dummy string
}

// NewHasher returns a bcrypt Hasher with the given cost.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("tripdesk-dummy-secret"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Hasher{cost: cost, dummy: string(dummy)}, nil
}

// Hash returns a bcrypt hash of secret under a fresh random salt.
func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether secret matches hash. A malformed hash never
// matches.
func (h *Hasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// VerifyDummy runs a comparison against a hash no secret matches. Callers
// use it when there is no stored hash so the rejection costs the same as a
// wrong password.
func (h *Hasher) VerifyDummy(secret string) bool {
	h.Verify(secret, h.dummy)
	return false
}
