package account

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents validated access token claims.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Issuer() string
	IssuedAt() time.Time
	Expires() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims carried inside
// access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim.
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user id, falling back to the subject claim.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the global role claim.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Issuer returns the issuer claim.
func (c *JWTClaims) Issuer() string {
	return c.RegisteredClaims.Issuer
}

// IssuedAt returns the time the token was minted, zero if absent.
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// Expires returns the token deadline, zero if absent.
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}
