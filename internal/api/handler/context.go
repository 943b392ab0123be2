package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/agroconnect/marketplace-auth/internal/api/middleware"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// ctxIdentity returns the identity and raw credential placed on the context by
// middleware.Bearer. A missing identity means the route was mounted without
// the middleware, which is treated as unauthenticated.
func ctxIdentity(c echo.Context) (*domain.Identity, string, error) {
	identity, _ := c.Get(middleware.ContextKeyIdentity).(*domain.Identity)
	raw, _ := c.Get(middleware.ContextKeyToken).(string)
	if identity == nil || raw == "" {
		return nil, "", domain.ErrUnauthorized
	}
	return identity, raw, nil
}
