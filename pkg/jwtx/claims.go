package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default lifetimes, overridable per deployment.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenUse tells an access token from a refresh token. Both are signed with
// the same secret, so without it a refresh token would pass as a bearer
// credential.
type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)

func (u TokenUse) valid() bool { return u == UseAccess || u == UseRefresh }

// Claims is the payload of every token the TokenManager issues.
type Claims struct {
	jwt.RegisteredClaims

	Use TokenUse `json:"token_use"`
}

func newClaims(subject, issuer string, use TokenUse, now time.Time, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Use: use,
	}
}

// Validate is called by the jwt parser after the registered claims pass.
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return ErrMissingSubject
	}
	if !c.Use.valid() {
		return ErrWrongTokenUse
	}
	return nil
}

// ExpiresAtTime returns exp in UTC, zero when absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}
