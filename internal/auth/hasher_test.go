package auth

import (
	"strings"
	"testing"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	h := NewBcryptHasher()

	tests := []struct {
		name   string
		secret string
	}{
		{name: "ascii", secret: "Abcdefg1"},
		{name: "unicode", secret: "pässwörd-日本語-1A"},
		{name: "empty", secret: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.secret)
			require.NoError(t, err)
			assert.NotEqual(t, tt.secret, hash)

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, BcryptCost, cost)

			ok, err := h.Verify(tt.secret, hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify(tt.secret+"x", hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	h := NewBcryptHasher()

	a, err := h.Hash("Abcdefg1")
	require.NoError(t, err)
	b, err := h.Hash("Abcdefg1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	ok, err := NewBcryptHasher().Verify("Abcdefg1", "not-a-bcrypt-hash")

	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, apperr.KindHashingFailure, apperr.KindOf(err))
}

func TestBcryptHasher_TooLongSecret(t *testing.T) {
	_, err := NewBcryptHasher().Hash(strings.Repeat("a", 73))

	require.Error(t, err)
	assert.Equal(t, apperr.KindHashingFailure, apperr.KindOf(err))
}
