package test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/Stewz00/wordwave-auth/internal/repository"
)

// MockUserRepository is an in-memory UserStore. A single mutex makes every
// method atomic, matching the per-row guarantees of the Postgres store.
type MockUserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*model.Account // by id

	// FailWith, when set, is returned by every method.
	FailWith error
}

// Verify that MockUserRepository implements UserStore interface
var _ interfaces.UserStore = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*model.Account)}
}

func (r *MockUserRepository) Create(ctx context.Context, a model.NewAccount) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}

	for _, u := range r.users {
		if u.Email == a.Email {
			return nil, repository.ErrDuplicateEmail
		}
		if u.Username == a.Username {
			return nil, repository.ErrDuplicateUsername
		}
	}

	role := a.Role
	if role == "" {
		role = model.RoleUser
	}
	r.nextID++
	now := time.Now()
	u := &model.Account{
		ID:           "user-" + strconv.Itoa(r.nextID),
		Email:        a.Email,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[u.ID] = u
	return clone(u), nil
}

func (r *MockUserRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.find(func(u *model.Account) bool { return u.ID == id })
}

func (r *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.find(func(u *model.Account) bool { return u.Email == email })
}

func (r *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.find(func(u *model.Account) bool { return u.Username == username })
}

func (r *MockUserRepository) FindByResetToken(ctx context.Context, digest string) (*model.Account, error) {
	return r.find(func(u *model.Account) bool { return u.ResetToken != nil && *u.ResetToken == digest })
}

func (r *MockUserRepository) find(match func(*model.Account) bool) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *MockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.update(id, func(u *model.Account) error {
		u.LastLogin = &at
		u.UpdatedAt = at
		return nil
	})
}

func (r *MockUserRepository) SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	return r.update(id, func(u *model.Account) error {
		u.ResetToken = &digest
		u.ResetTokenExpiresAt = &expiresAt
		return nil
	})
}

func (r *MockUserRepository) ConsumeResetToken(ctx context.Context, id, digest, passwordHash string, at time.Time) error {
	err := r.update(id, func(u *model.Account) error {
		if u.ResetToken == nil || *u.ResetToken != digest {
			return repository.ErrResetTokenNotFound
		}
		u.PasswordHash = passwordHash
		u.ResetToken = nil
		u.ResetTokenExpiresAt = nil
		u.UpdatedAt = at
		return nil
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return repository.ErrResetTokenNotFound
	}
	return err
}

func (r *MockUserRepository) update(id string, fn func(*model.Account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	return fn(u)
}

// SetActive toggles an account's active flag.
func (r *MockUserRepository) SetActive(email string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.IsActive = active
		}
	}
}

// Get returns a copy of the stored account for email, or nil.
func (r *MockUserRepository) Get(email string) *model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return clone(u)
		}
	}
	return nil
}

func clone(u *model.Account) *model.Account {
	c := *u
	if u.ResetToken != nil {
		tok := *u.ResetToken
		c.ResetToken = &tok
	}
	if u.ResetTokenExpiresAt != nil {
		exp := *u.ResetTokenExpiresAt
		c.ResetTokenExpiresAt = &exp
	}
	if u.LastLogin != nil {
		ll := *u.LastLogin
		c.LastLogin = &ll
	}
	return &c
}

// SentMail records one password-reset delivery.
type SentMail struct {
	Email    string
	Username string
	Token    string
}

// MockMailer records password-reset mails instead of sending them.
type MockMailer struct {
	mu   sync.Mutex
	sent []SentMail

	// Err, when set, is returned from SendPasswordReset.
	Err error
}

var _ interfaces.Mailer = (*MockMailer)(nil)

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMail{Email: email, Username: username, Token: token})
	return nil
}

// Sent returns a copy of the recorded mails.
func (m *MockMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail(nil), m.sent...)
}

// Last returns the most recent mail, or false if none was sent.
func (m *MockMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// FakeClock is a settable clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ interfaces.Clock = (*FakeClock)(nil)

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

