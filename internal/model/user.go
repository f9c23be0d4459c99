package model

import "time"

// Role is the authorization role attached to an account and embedded in
// issued tokens.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// Account is the persisted user record. ResetToken holds the digest of an
// outstanding password-reset token, never the raw value; it and
// ResetTokenExpiresAt are either both set or both nil.
type Account struct {
	ID                  string
	Email               string
	Username            string
	PasswordHash        string
	Role                Role
	IsActive            bool
	ResetToken          *string
	ResetTokenExpiresAt *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewAccount holds the fields needed to create an account.
type NewAccount struct {
	Email        string
	Username     string
	PasswordHash string
	Role         Role
}

// AccountView is the client-facing projection of an account.
type AccountView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      Role       `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// View strips the password hash and reset fields.
func (a *Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		Email:     a.Email,
		Username:  a.Username,
		Role:      a.Role,
		IsActive:  a.IsActive,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
