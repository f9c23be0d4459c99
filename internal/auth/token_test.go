package auth

import (
	"testing"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/Stewz00/wordwave-auth/internal/test"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSubject = Subject{ID: "user-1", Email: "a@x.com", Role: model.RoleAdmin}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	clock := test.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("test-secret", time.Hour, clock)

	token, expiresAt, err := issuer.Issue(testSubject)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(time.Hour), expiresAt)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, clock.Now().Unix(), claims.IssuedAt.Unix())
}

func TestTokenIssuer_Verify(t *testing.T) {
	clock := test.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("test-secret", time.Hour, clock)

	valid, _, err := issuer.Issue(testSubject)
	require.NoError(t, err)

	otherKey, _, err := NewTokenIssuer("other-secret", time.Hour, clock).Issue(testSubject)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  apperr.Kind
	}{
		{name: "garbage", token: "invalid.token.string", want: apperr.KindTokenInvalid},
		{name: "empty", token: "", want: apperr.KindTokenInvalid},
		{name: "wrong key", token: otherKey, want: apperr.KindTokenInvalid},
		{name: "none algorithm", token: noneAlg, want: apperr.KindTokenInvalid},
		{name: "missing expiry", token: noExpiry, want: apperr.KindTokenInvalid},
		{name: "tampered", token: valid[:len(valid)-2] + "xx", want: apperr.KindTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := issuer.Verify(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestTokenIssuer_ExpiredIsDistinctFromInvalid(t *testing.T) {
	clock := test.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer("test-secret", time.Hour, clock)

	token, _, err := issuer.Issue(testSubject)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	_, err = issuer.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(err))

	// An expired token signed with the wrong key is invalid, not expired.
	forged, _, err := NewTokenIssuer("other-secret", time.Hour, test.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))).Issue(testSubject)
	require.NoError(t, err)

	_, err = issuer.Verify(forged)
	assert.Equal(t, apperr.KindTokenInvalid, apperr.KindOf(err))
}
