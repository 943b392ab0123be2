package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// The functions below read a credential's payload WITHOUT checking its
// signature. They exist for UX decisions on the client (should the user be
// nudged to log in again soon?). They must never be used to grant access:
// only Issuer.Verify on the server is authoritative.

var unverified = jwt.NewParser()

// Decode parses the payload segment. A structurally malformed token (wrong
// segment count, bad base64url, payload that is not the expected JSON) is
// reported as domain.ErrMalformedToken wrapping the parser's reason.
func Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := unverified.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedToken, err)
	}
	return claims, nil
}

// DecodeClaims is Decode without the reason. Callers treat nil as "assume
// expiring".
func DecodeClaims(raw string) *Claims {
	claims, err := Decode(raw)
	if err != nil {
		return nil
	}
	return claims
}

// IsExpired is true when the expiry lies before now or cannot be decoded.
func IsExpired(raw string, now time.Time) bool {
	c := DecodeClaims(raw)
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Time.Before(now)
}

// IsExpiringWithin is true when 0 <= expiresAt-now < window. An undecodable
// token is reported as expiring.
func IsExpiringWithin(raw string, now time.Time, window time.Duration) bool {
	c := DecodeClaims(raw)
	if c == nil || c.ExpiresAt == nil {
		return true
	}
	left := c.ExpiresAt.Time.Sub(now)
	return left >= 0 && left < window
}
