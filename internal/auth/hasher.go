// Package auth provides the credential primitives: password hashing,
// bearer-token issuance and password-reset tokens.
package auth

import (
	"errors"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the fixed work factor for stored password hashes.
const BcryptCost = 10

// PasswordHasher hashes and verifies secrets.
type PasswordHasher interface {
	// Hash returns a salted one-way hash of secret.
	Hash(secret string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and a
	// hashing-failure error when hash is malformed.
	Verify(secret, hash string) (bool, error)
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", apperr.Wrap(apperr.KindHashingFailure, "Password hashing process failed", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(secret, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, apperr.Wrap(apperr.KindHashingFailure, "Password comparison process failed", err)
	}
}
