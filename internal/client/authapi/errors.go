package authapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

// ErrOffline is reported when the injected Connectivity says the
// device has no network. No request is dispatched in that case.
var ErrOffline = errors.New("environment reports offline")

// TransportError means no HTTP response was obtained: the request could not
// be dispatched, the connection failed, or the exchange was cut before the
// body was read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets callers match any transport failure with domain.ErrNetworkUnavailable.
func (e *TransportError) Is(target error) bool {
	return target == domain.ErrNetworkUnavailable
}

// ResponseError means the server answered with a non-2xx status.
type ResponseError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap maps the response to a domain sentinel, preferring the wire code
// over the status.
func (e *ResponseError) Unwrap() error {
	if err := domain.ErrorForCode(e.Code); err != nil {
		return err
	}
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return domain.ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return domain.ErrServerFault
	}
	return nil
}
