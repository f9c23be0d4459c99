package handler

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 8

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// Field messages shown to clients.
const (
	msgEmailRequired      = "Email address is required"
	msgEmailInvalid       = "Please enter a valid email address"
	msgPasswordRequired   = "Password is required"
	msgPasswordTooShort   = "Password must be at least 8 characters long"
	msgPasswordTooLong    = "Password must be at most 72 bytes long"
	msgPasswordWeak       = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	msgUsernameRequired   = "Username is required"
	msgUsernameAt         = "Username must not contain @"
	msgIdentifierRequired = "Email address or username is required"
	msgTokenRequired      = "Token is required"
)

func validateRegister(req RegisterRequest) map[string]string {
	fields := map[string]string{}
	checkEmail(fields, req.Email)
	checkNewPassword(fields, req.Password)
	switch {
	case strings.TrimSpace(req.Username) == "":
		fields["username"] = msgUsernameRequired
	case strings.Contains(req.Username, "@"):
		// Login treats any identifier with @ as an email.
		fields["username"] = msgUsernameAt
	}
	return fields
}

func validateLogin(req LoginRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Identifier) == "" {
		fields["identifier"] = msgIdentifierRequired
	}
	if req.Password == "" {
		fields["password"] = msgPasswordRequired
	}
	return fields
}

func validateForgotPassword(req ForgotPasswordRequest) map[string]string {
	fields := map[string]string{}
	checkEmail(fields, req.Email)
	return fields
}

func validateResetPassword(req ResetPasswordRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Token) == "" {
		fields["token"] = msgTokenRequired
	}
	checkNewPassword(fields, req.Password)
	return fields
}

func checkEmail(fields map[string]string, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		fields["email"] = msgEmailRequired
		return
	}
	if !isEmail(email) {
		fields["email"] = msgEmailInvalid
	}
}

// isEmail accepts a bare addr-spec with a dotted domain. Display-name forms
// such as "Alice <a@x.com>" are rejected.
func isEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return false
	}
	_, domain, ok := strings.Cut(s, "@")
	return ok && strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

func checkNewPassword(fields map[string]string, password string) {
	if password == "" {
		fields["password"] = msgPasswordRequired
		return
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		fields["password"] = msgPasswordTooShort
		return
	}
	if len(password) > maxPasswordBytes {
		fields["password"] = msgPasswordTooLong
		return
	}

	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		fields["password"] = msgPasswordWeak
	}
}
