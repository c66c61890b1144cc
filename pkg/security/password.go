// Package security hashes and verifies patient credentials. Plain
// passwords exist only transiently; every stored credential is a bcrypt
// hash.
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLen mirrors the registration contract's minimum.
	MinPasswordLen = 8

	// DefaultCost is the bcrypt work factor for stored credentials. Tests
	// use a lower cost to keep hashing cheap.
	DefaultCost = 12
)

// PasswordHasher hides the hashing scheme from the service layer.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed hasher. Costs outside bcrypt's
// supported range fall back to DefaultCost.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// Compare reports a non-nil error on any mismatch. Callers translate it to
// a generic credentials failure so mismatch and unknown id are
// indistinguishable.
func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
