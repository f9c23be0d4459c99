package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/Stewz00/wordwave-auth/internal/repository"
)

// Reset token configuration.
const (
	ResetTokenBytes  = 32 // 64 hex chars once encoded
	ResetTokenExpiry = time.Hour
)

// ResetTokenManager issues and consumes single-use password-reset tokens.
// Only the SHA-256 digest of a token is persisted; the raw value exists
// only in the email sent to the account holder.
type ResetTokenManager struct {
	store  interfaces.UserStore
	hasher PasswordHasher
	clock  interfaces.Clock
}

func NewResetTokenManager(store interfaces.UserStore, hasher PasswordHasher, clock interfaces.Clock) *ResetTokenManager {
	return &ResetTokenManager{
		store:  store,
		hasher: hasher,
		clock:  clock,
	}
}

// Issue generates a reset token for account, stores its digest with a one
// hour expiry, and returns the raw token for delivery.
func (m *ResetTokenManager) Issue(ctx context.Context, account *model.Account) (string, time.Time, error) {
	raw, digest, err := GenerateResetToken()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := m.clock.Now().Add(ResetTokenExpiry)
	if err := m.store.SetResetToken(ctx, account.ID, digest, expiresAt); err != nil {
		return "", time.Time{}, apperr.Internal(err)
	}
	return raw, expiresAt, nil
}

// Consume validates raw and, if it is current, replaces the account's
// password with newSecret and clears the token. A token can be consumed at
// most once; later attempts see KindTokenNotFound.
func (m *ResetTokenManager) Consume(ctx context.Context, raw, newSecret string) (*model.Account, error) {
	if raw == "" {
		return nil, apperr.New(apperr.KindTokenNotFound, "Reset token not found")
	}
	digest := DigestResetToken(raw)

	account, err := m.store.FindByResetToken(ctx, digest)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.New(apperr.KindTokenNotFound, "Reset token not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := m.clock.Now()
	// The store does not enforce expiry, so it is checked here by value.
	if account.ResetTokenExpiresAt == nil || now.After(*account.ResetTokenExpiresAt) {
		return nil, apperr.New(apperr.KindTokenExpired, "Reset token has expired")
	}

	hash, err := m.hasher.Hash(newSecret)
	if err != nil {
		return nil, err
	}

	err = m.store.ConsumeResetToken(ctx, account.ID, digest, hash, now)
	if errors.Is(err, repository.ErrResetTokenNotFound) {
		return nil, apperr.New(apperr.KindTokenNotFound, "Reset token not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}

	account.PasswordHash = hash
	account.ResetToken = nil
	account.ResetTokenExpiresAt = nil
	account.UpdatedAt = now
	return account, nil
}

// GenerateResetToken returns a random hex token and its digest.
func GenerateResetToken() (token, digest string, err error) {
	b := make([]byte, ResetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", apperr.Internal(err)
	}
	token = hex.EncodeToString(b)
	return token, DigestResetToken(token), nil
}

// DigestResetToken computes the stored form of a raw reset token.
func DigestResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
