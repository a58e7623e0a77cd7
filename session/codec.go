// Package session issues and validates the service's own signed
// session tokens, distinct from the external provider's credentials,
// and manages the cookie that carries them.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrExpiredToken is returned for structurally valid tokens past
	// their expiry. Callers treat both errors as unauthenticated; they
	// stay distinct for diagnostics.
	ErrExpiredToken = errors.New("session: expired token")
)

// Codec signs and verifies session tokens. A token embeds only the
// account id and an absolute expiry.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// WithNow overrides the codec clock. Used by tests.
func (c *Codec) WithNow(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue signs a token for accountID expiring at now + ttl.
func (c *Codec) Issue(accountID string, ttl time.Duration) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature and expiry and returns the embedded account id.
func (c *Codec) Validate(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
