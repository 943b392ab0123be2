// Package session owns the client-side authentication lifecycle: it decides,
// from the outcome of each remote call, whether the locally held credential
// is trusted, stale, or must be discarded.
package session

import (
	"errors"
	"net/http"

	"github.com/agroconnect/marketplace-auth/internal/client/authapi"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

type State int

const (
	Unauthenticated State = iota
	Bootstrapping
	Authenticated
	// AuthenticatedStale means the server could not be reached to confirm
	// the credential; the cached identity is shown but unconfirmed.
	AuthenticatedStale
	Expired
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Bootstrapping:
		return "bootstrapping"
	case Authenticated:
		return "authenticated"
	case AuthenticatedStale:
		return "authenticated-stale"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Status is an immutable view of the machine.
type Status struct {
	State    State
	Identity *domain.Identity
}

// SignedIn reports whether an identity should be presented as logged in.
func (s Status) SignedIn() bool {
	return s.State == Authenticated || s.State == AuthenticatedStale || s.State == Bootstrapping
}

type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassNetwork
	ClassAuth
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassAuth:
		return "auth"
	}
	return "other"
}

// Classify sorts a remote failure. NETWORK means no response was obtained;
// AUTH means the server answered 401 or 403. Everything else is OTHER.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassOther
	}
	var transportErr *authapi.TransportError
	if errors.As(err, &transportErr) {
		return ClassNetwork
	}
	var respErr *authapi.ResponseError
	if errors.As(err, &respErr) {
		if respErr.Status == http.StatusUnauthorized || respErr.Status == http.StatusForbidden {
			return ClassAuth
		}
	}
	return ClassOther
}
