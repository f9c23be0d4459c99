// Package apperr defines the closed set of error kinds the auth subsystem
// can report to its callers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error. The set is closed: callers switch on it
// exhaustively to pick a response.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindEmailTaken
	KindInvalidCredentials
	KindTokenInvalid
	KindTokenExpired
	KindTokenNotFound
	KindHashingFailure
	KindRateLimitExceeded
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindValidation:         "validation",
	KindEmailTaken:         "email_taken",
	KindInvalidCredentials: "invalid_credentials",
	KindTokenInvalid:       "token_invalid",
	KindTokenExpired:       "token_expired",
	KindTokenNotFound:      "token_not_found",
	KindHashingFailure:     "hashing_failure",
	KindRateLimitExceeded:  "rate_limit_exceeded",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned across package boundaries. Message is
// safe to show to a client; Err is the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, apperr.New(KindTokenExpired, ""))
// holds for any expired-token error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind with cause attached.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation returns a validation error carrying per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// Internal wraps an unexpected failure. The message never includes the cause.
func Internal(cause error) *Error {
	return Wrap(KindInternal, "Internal server error", cause)
}

// KindOf reports the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As extracts the *Error from err, wrapping anything else as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
