package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "direct", err: New(KindEmailTaken, "taken"), want: KindEmailTaken},
		{name: "wrapped", err: fmt.Errorf("register: %w", New(KindTokenExpired, "expired")), want: KindTokenExpired},
		{name: "plain error", err: errors.New("boom"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("consume: %w", Wrap(KindTokenNotFound, "no such token", errors.New("no rows")))

	assert.True(t, errors.Is(err, New(KindTokenNotFound, "")))
	assert.False(t, errors.Is(err, New(KindTokenExpired, "")))
}

func TestAs_WrapsUnknownErrorsAsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	e := As(cause)

	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "Internal server error", e.Message)
	assert.ErrorIs(t, e, cause)
	assert.NotContains(t, e.Message, "connection refused")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "rate_limit_exceeded", KindRateLimitExceeded.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
