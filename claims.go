package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the claims of access and refresh tokens. Refresh tokens
// leave Email and UserRole empty.
type JWTClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// Role returns the role claim
func (c *JWTClaims) Role() UserRole {
	return UserRole(c.UserRole)
}

// HasRole checks if the role claim equals role
func (c *JWTClaims) HasRole(role UserRole) bool {
	return c.UserRole == string(role)
}

// IsAccessToken reports whether the token identifies an account
func (c *JWTClaims) IsAccessToken() bool {
	return c.Email != ""
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
