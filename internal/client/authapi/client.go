// Package authapi is the client side of the auth HTTP surface. Every failure
// it returns is either a *TransportError (no response obtained) or a
// *ResponseError (a response with a non-2xx status), so callers can classify
// failures without looking at message text.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agroconnect/marketplace-auth/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Connectivity reports whether the environment believes it is online.
type Connectivity interface {
	Online() bool
}

// AuthResult is the body of a successful login or registration.
type AuthResult struct {
	Message  string           `json:"message"`
	Token    string           `json:"token"`
	Identity *domain.Identity `json:"identity"`
}

type Client struct {
	baseURL string
	http    *http.Client
	online  Connectivity
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConnectivity installs a check consulted before each request.
func WithConnectivity(online Connectivity) Option {
	return func(c *Client) { c.online = online }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type registerBody struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

type profileBody struct {
	Identity *domain.Identity `json:"identity"`
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, "register", http.MethodPost, "/auth/register", "", registerBody{
		Email:       reg.Email,
		Password:    reg.Password,
		DisplayName: reg.DisplayName,
		Role:        string(reg.Role),
		Phone:       reg.Phone,
		Address:     reg.Address,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile is the remote identity verification call.
func (c *Client) Profile(ctx context.Context, token string) (*domain.Identity, error) {
	var out profileBody
	if err := c.do(ctx, "profile", http.MethodGet, "/auth/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return out.Identity, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.Identity, error) {
	var out profileBody
	if err := c.do(ctx, "update profile", http.MethodPut, "/auth/profile", token, update, &out); err != nil {
		return nil, err
	}
	return out.Identity, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, "forgot password", http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email}, nil)
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) error {
	if c.online != nil && !c.online.Online() {
		return &TransportError{Op: op, Err: ErrOffline}
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)
		return &ResponseError{Op: op, Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ResponseError{Op: op, Status: resp.StatusCode, Code: domain.CodeServerFault, Message: "malformed response body"}
	}
	return nil
}
