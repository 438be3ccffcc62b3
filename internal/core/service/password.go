package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/maintenance-app/maintenance-api/internal/core/domain"
)

const (
	// DefaultBcryptCost is used when no cost is configured.
	DefaultBcryptCost = 12
	// MaxPasswordBytes is the longest input bcrypt will hash.
	MaxPasswordBytes = 72
)

var (
	errEmptyPassword   = fmt.Errorf("%w: password must not be empty", domain.ErrInvalidInput)
	errPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, MaxPasswordBytes)
)

// PasswordHasher hashes and verifies user secrets with bcrypt. It holds no
// mutable state and is safe for concurrent use.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, clamped to bcrypt's valid range.
// A non-positive cost selects DefaultBcryptCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost <= 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plaintext. Empty input and input
// longer than MaxPasswordBytes fail with domain.ErrInvalidInput.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	switch {
	case plaintext == "":
		return "", errEmptyPassword
	case len(plaintext) > MaxPasswordBytes:
		return "", errPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
