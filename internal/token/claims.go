// Package token holds the bearer credential format shared by the API server
// and its clients: an HS256 JWT whose payload carries the subject id, issue
// and expiry timestamps, and the account role.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// Claims is the payload segment of a credential.
type Claims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID is the identity id the credential was issued to.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// IssuedAtTime returns the zero time when the claim is missing.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the zero time when the claim is missing.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
