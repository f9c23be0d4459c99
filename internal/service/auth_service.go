package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"github.com/Stewz00/wordwave-auth/internal/auth"
	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/logging"
	"github.com/Stewz00/wordwave-auth/internal/metrics"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/Stewz00/wordwave-auth/internal/repository"
)

// Messages returned to clients on the password-reset flows.
const (
	ForgotPasswordMessage = "If that email address is registered, a password reset link has been sent"
	ResetPasswordMessage  = "Password has been reset successfully"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	invalidResetTokenMessage  = "Invalid or expired reset token"
	emailTakenMessage         = "This email address is already in use"
	usernameTakenMessage      = "This username is already in use"
)

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

// AuthService composes the hasher, token issuer and reset-token manager into
// the register, login, forgot-password and reset-password flows. Every error
// it returns is an *apperr.Error.
type AuthService struct {
	store  interfaces.UserStore
	hasher auth.PasswordHasher
	tokens *auth.TokenIssuer
	resets *auth.ResetTokenManager
	mailer interfaces.Mailer
	clock  interfaces.Clock
	log    logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new authentication service
func NewAuthService(
	store interfaces.UserStore,
	hasher auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	resets *auth.ResetTokenManager,
	mailer interfaces.Mailer,
	clock interfaces.Clock,
	log logging.Logger,
) *AuthService {
	return &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		resets: resets,
		mailer: mailer,
		clock:  clock,
		log:    log.With("component", "auth"),
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active account with the user role and signs a token
// for it.
func (s *AuthService) Register(ctx context.Context, email, password, username string) (res *AuthResult, err error) {
	defer s.record("register", time.Now(), &err)

	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)

	_, err = s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperr.New(apperr.KindEmailTaken, emailTakenMessage)
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, s.internal(ctx, "lookup by email failed", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.fail(ctx, "hash password failed", err)
	}

	account, err := s.store.Create(ctx, model.NewAccount{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleUser,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		// Lost a race with a concurrent registration.
		return nil, apperr.New(apperr.KindEmailTaken, emailTakenMessage)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return nil, apperr.Validation(map[string]string{"username": usernameTakenMessage})
	case err != nil:
		return nil, s.internal(ctx, "create account failed", err)
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return s.issue(ctx, account)
}

// Login authenticates identifier, which may be an email or a username.
// Unknown identifiers, inactive accounts and wrong passwords are reported
// identically.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (res *AuthResult, err error) {
	defer s.record("login", time.Now(), &err)

	account, err := s.lookup(ctx, identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		// Spend the same bcrypt work as a real comparison.
		_, _ = s.hasher.Verify(password, s.dummy())
		return nil, apperr.New(apperr.KindInvalidCredentials, invalidCredentialsMessage)
	}
	if err != nil {
		return nil, s.internal(ctx, "lookup for login failed", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, s.fail(ctx, "verify password failed", err)
	}
	if !ok || !account.IsActive {
		s.log.Info(ctx, "login rejected", "account_id", account.ID, "active", account.IsActive)
		return nil, apperr.New(apperr.KindInvalidCredentials, invalidCredentialsMessage)
	}

	now := s.clock.Now()
	if err := s.store.UpdateLastLogin(ctx, account.ID, now); err != nil {
		s.log.Warn(ctx, "failed to stamp last login", "account_id", account.ID, "error", err)
	} else {
		account.LastLogin = &now
	}

	return s.issue(ctx, account)
}

// ForgotPassword issues a reset token for email and mails it. The returned
// message is the same whether or not the address is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (msg string, err error) {
	defer s.record("forgot_password", time.Now(), &err)

	email = NormalizeEmail(email)
	account, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log.Info(ctx, "password reset requested for unknown email")
		return ForgotPasswordMessage, nil
	}
	if err != nil {
		return "", s.internal(ctx, "lookup by email failed", err)
	}
	if !account.IsActive {
		s.log.Info(ctx, "password reset requested for inactive account", "account_id", account.ID)
		return ForgotPasswordMessage, nil
	}

	token, expiresAt, err := s.resets.Issue(ctx, account)
	if err != nil {
		return "", s.fail(ctx, "issue reset token failed", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, account.Email, account.Username, token); err != nil {
		return "", s.internal(ctx, "send password reset email failed", err)
	}

	s.log.Info(ctx, "password reset issued", "account_id", account.ID, "expires_at", expiresAt)
	return ForgotPasswordMessage, nil
}

// ResetPassword consumes token and sets password as the new secret.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (msg string, err error) {
	defer s.record("reset_password", time.Now(), &err)

	account, err := s.resets.Consume(ctx, token, password)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindTokenNotFound, apperr.KindTokenInvalid:
			return "", apperr.Wrap(apperr.KindTokenInvalid, invalidResetTokenMessage, err)
		case apperr.KindTokenExpired:
			return "", apperr.Wrap(apperr.KindTokenExpired, invalidResetTokenMessage, err)
		default:
			return "", s.fail(ctx, "consume reset token failed", err)
		}
	}

	s.log.Info(ctx, "password reset", "account_id", account.ID)
	return ResetPasswordMessage, nil
}

// CurrentAccount resolves a bearer token to the live account it names.
// Accounts that were removed or deactivated since issuance are rejected.
func (s *AuthService) CurrentAccount(ctx context.Context, token string) (account *model.Account, err error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	account, err = s.store.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.New(apperr.KindTokenInvalid, "Invalid token")
	}
	if err != nil {
		return nil, s.internal(ctx, "lookup by id failed", err)
	}
	if !account.IsActive {
		return nil, apperr.New(apperr.KindTokenInvalid, "Invalid token")
	}
	return account, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*model.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, repository.ErrUserNotFound
	}
	if strings.Contains(identifier, "@") {
		return s.store.FindByEmail(ctx, NormalizeEmail(identifier))
	}
	return s.store.FindByUsername(ctx, identifier)
}

func (s *AuthService) issue(ctx context.Context, account *model.Account) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(auth.Subject{
		ID:    account.ID,
		Email: account.Email,
		Role:  account.Role,
	})
	if err != nil {
		return nil, s.fail(ctx, "sign token failed", err)
	}
	return &AuthResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

// dummy returns a hash used to equalise timing for unknown identifiers.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("wordwave-dummy-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// fail logs err and passes typed errors through, wrapping anything else as
// internal.
func (s *AuthService) fail(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, msg, "error", err)
	return apperr.As(err)
}

func (s *AuthService) internal(ctx context.Context, msg string, err error) error {
	s.log.Error(ctx, msg, "error", err)
	return apperr.Internal(err)
}

func (s *AuthService) record(op string, start time.Time, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = apperr.KindOf(*err).String()
	}
	metrics.RecordAuth(op, outcome, time.Since(start))
}
