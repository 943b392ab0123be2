package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agroconnect/marketplace-auth/internal/api/metrics"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// Context keys set by Bearer for downstream handlers.
const (
	ContextKeyIdentity = "identity"
	ContextKeyToken    = "token"
)

// Verifier resolves a bearer credential to an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// Bearer extracts the Authorization bearer credential and resolves it through
// the verifier. It never inspects the token itself; the verifier is the only
// trust path.
func Bearer(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.VerificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
				return domain.ErrUnauthorized
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.VerificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
				return domain.ErrUnauthorized
			}
			raw := strings.TrimSpace(parts[1])

			identity, err := v.Verify(c.Request().Context(), raw)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrNotFound) {
					metrics.VerificationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
				} else {
					metrics.VerificationsTotal.WithLabelValues(metrics.ResultError).Inc()
				}
				return err
			}
			metrics.VerificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

			c.Set(ContextKeyIdentity, identity)
			c.Set(ContextKeyToken, raw)
			return next(c)
		}
	}
}
