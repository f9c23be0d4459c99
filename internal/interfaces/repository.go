package interfaces

import (
	"context"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/model"
)

// UserStore defines the account persistence operations the auth subsystem
// needs. Lookups return repository.ErrUserNotFound when nothing matches.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByResetToken(ctx context.Context, digest string) (*model.Account, error)
	Create(ctx context.Context, account model.NewAccount) (*model.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// SetResetToken stores a reset digest and its expiry together.
	SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error
	// ConsumeResetToken replaces the password hash and clears both reset
	// fields in one conditional write, but only while the account still
	// holds digest. It returns repository.ErrResetTokenNotFound otherwise.
	ConsumeResetToken(ctx context.Context, id, digest, passwordHash string, at time.Time) error
}

// Mailer delivers password-reset notifications.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, username, token string) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
