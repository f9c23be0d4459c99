package auth

import (
	"errors"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/apperr"
	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed claim set carried by a bearer token. The subject
// (account id) travels in the registered "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// Subject identifies who a token is issued for.
type Subject struct {
	ID    string
	Email string
	Role  model.Role
}

// TokenIssuer signs and verifies HS256 bearer tokens. The key is fixed for
// the lifetime of the process.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  interfaces.Clock
}

func NewTokenIssuer(secret string, ttl time.Duration, clock interfaces.Clock) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

// Issue signs a token for sub and returns it along with its expiry.
func (i *TokenIssuer) Issue(sub Subject) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: sub.Email,
		Role:  sub.Role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, apperr.Internal(err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry. A well-signed token past its expiry
// yields KindTokenExpired; anything else wrong yields KindTokenInvalid.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindTokenExpired, "Token has expired", err)
		}
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "Invalid token", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperr.New(apperr.KindTokenInvalid, "Invalid token")
	}
	return claims, nil
}
