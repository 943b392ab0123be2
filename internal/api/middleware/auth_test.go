package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

type stubVerifier struct {
	identity *domain.Identity
	err      error
	got      string
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*domain.Identity, error) {
	s.got = token
	return s.identity, s.err
}

func runBearer(t *testing.T, v Verifier, header string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, Bearer(v)(next)(c)
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestBearer_ValidToken(t *testing.T) {
	v := &stubVerifier{identity: &domain.Identity{ID: "u1", Role: domain.RoleProducer}}

	called := false
	rec, err := runBearer(t, v, "Bearer abc.def.ghi", func(c echo.Context) error {
		called = true
		id, _ := c.Get(ContextKeyIdentity).(*domain.Identity)
		if id == nil || id.ID != "u1" {
			t.Fatalf("identity not set")
		}
		if c.Get(ContextKeyToken) != "abc.def.ghi" {
			t.Fatalf("token not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if v.got != "abc.def.ghi" {
		t.Fatalf("verifier got %q", v.got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBearer_MissingHeader(t *testing.T) {
	_, err := runBearer(t, &stubVerifier{}, "", mustNotReach(t))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBearer_InvalidHeaderFormat(t *testing.T) {
	for _, h := range []string{"Token abc", "Bearer", "Bearer   "} {
		_, err := runBearer(t, &stubVerifier{}, h, mustNotReach(t))
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%q: expected ErrUnauthorized, got %v", h, err)
		}
	}
}

func TestBearer_VerifierRejects(t *testing.T) {
	_, err := runBearer(t, &stubVerifier{err: domain.ErrUnauthorized}, "Bearer not-a-token", mustNotReach(t))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBearer_UnknownSubject(t *testing.T) {
	_, err := runBearer(t, &stubVerifier{err: domain.ErrNotFound}, "Bearer a.b.c", mustNotReach(t))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
