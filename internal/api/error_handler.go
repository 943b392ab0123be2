package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Code is
// stable and machine-readable; Error is for humans.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and wire code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<code>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := resolveError(err, log, c)
		_ = c.JSON(status, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Known domain errors → deterministic HTTP codes. Duplicate account and
	// bad credentials are both 400 so the status alone reveals nothing.
	switch {
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrDuplicateAccount.Error(), Code: domain.CodeDuplicateAccount}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidCredentials.Error(), Code: domain.CodeInvalidCredentials}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Error: "invalid or expired token", Code: domain.CodeUnauthorized}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: domain.ErrNotFound.Error(), Code: domain.CodeNotFound}
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, errorResponse{Error: "role must be producer or consumer", Code: domain.CodeInvalidInput}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: domain.CodeInvalidInput}
	}

	// Echo's own errors (404 from router, 405, body too large, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: domain.CodeServerFault}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return domain.CodeUnauthorized
	case status == http.StatusNotFound:
		return domain.CodeNotFound
	case status >= 500:
		return domain.CodeServerFault
	default:
		return domain.CodeInvalidInput
	}
}
