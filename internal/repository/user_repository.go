package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/database"
	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/samber/oops"
)

// Common errors that can be returned by the repository
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrResetTokenNotFound = errors.New("reset token not found")
)

const accountColumns = `id, email, username, password_hash, role, is_active,
	reset_token, reset_token_expiration, last_login, created_at, updated_at`

// UserRepositoryImpl implements the UserStore interface on PostgreSQL
type UserRepositoryImpl struct {
	db *database.DB
}

// Verify that UserRepositoryImpl implements UserStore interface
var _ interfaces.UserStore = (*UserRepositoryImpl)(nil)

// NewUserRepository creates a new UserStore backed by db
func NewUserRepository(db *database.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

// Create inserts a new account with a fresh id
func (r *UserRepositoryImpl) Create(ctx context.Context, a model.NewAccount) (*model.Account, error) {
	role := a.Role
	if role == "" {
		role = model.RoleUser
	}

	row := r.db.Pool.QueryRow(ctx,
		`INSERT INTO users (id, email, username, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accountColumns,
		uuid.NewString(), a.Email, a.Username, a.PasswordHash, string(role))

	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if pgErr.ConstraintName == "users_username_key" {
				return nil, ErrDuplicateUsername
			}
			return nil, ErrDuplicateEmail
		}
		return nil, oops.Code("USER_CREATE_FAILED").With("operation", "insert user").Wrap(err)
	}
	return account, nil
}

// FindByID retrieves an account by its id
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail retrieves an account by its (normalized) email address
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.findOne(ctx, "email", email)
}

// FindByUsername retrieves an account by username
func (r *UserRepositoryImpl) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.findOne(ctx, "username", username)
}

// FindByResetToken retrieves the account holding the given reset digest
func (r *UserRepositoryImpl) FindByResetToken(ctx context.Context, digest string) (*model.Account, error) {
	return r.findOne(ctx, "reset_token", digest)
}

func (r *UserRepositoryImpl) findOne(ctx context.Context, column, value string) (*model.Account, error) {
	// column is always one of the literals above, never caller input.
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE `+column+` = $1`, value)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").With("column", column).Wrap(err)
	}
	return account, nil
}

// UpdateLastLogin stamps the last successful login time
func (r *UserRepositoryImpl) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`,
		id, at)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "update last login").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetResetToken stores a reset digest and its expiry, replacing any earlier one
func (r *UserRepositoryImpl) SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users
		 SET reset_token = $2, reset_token_expiration = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1`,
		id, digest, expiresAt)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "set reset token").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ConsumeResetToken swaps the password hash and clears the reset pair, but
// only if the row still holds digest. Concurrent consumers race on this
// single statement and at most one sees a row affected.
func (r *UserRepositoryImpl) ConsumeResetToken(ctx context.Context, id, digest, passwordHash string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users
		 SET password_hash = $3, reset_token = NULL, reset_token_expiration = NULL, updated_at = $4
		 WHERE id = $1 AND reset_token = $2`,
		id, digest, passwordHash, at)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").With("operation", "consume reset token").Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResetTokenNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	var role string
	err := row.Scan(&a.ID, &a.Email, &a.Username, &a.PasswordHash, &role, &a.IsActive,
		&a.ResetToken, &a.ResetTokenExpiresAt, &a.LastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	return &a, nil
}
