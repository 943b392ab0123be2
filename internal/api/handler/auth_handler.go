package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agroconnect/marketplace-auth/internal/api/metrics"
	"github.com/agroconnect/marketplace-auth/internal/core/domain"
	"github.com/agroconnect/marketplace-auth/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"required"`
	Role        string `json:"role" validate:"omitempty,oneof=producer consumer"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type authResponse struct {
	Message  string           `json:"message,omitempty"`
	Token    string           `json:"token,omitempty"`
	Identity *domain.Identity `json:"identity,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new account and returns its first credential.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return domain.ErrInvalidInput
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	tkn, identity, err := h.authService.Register(c.Request().Context(), domain.Registration{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        domain.Role(req.Role),
		Phone:       req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) || errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidRole) {
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusCreated, authResponse{
		Message:  "User registered successfully",
		Token:    tkn,
		Identity: identity,
	})
}

// Login authenticates with email and password and returns a credential.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return domain.ErrInvalidInput
	}

	tkn, identity, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, authResponse{
		Message:  "Login successful",
		Token:    tkn,
		Identity: identity,
	})
}

// GetProfile returns the identity bound to the bearer credential.
//
// @Summary      Current profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/profile [get]
func (h *AuthHandler) GetProfile(c echo.Context) error {
	identity, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{Identity: identity})
}

// UpdateProfile applies a partial update to the caller's profile. Keys that
// are absent from the body leave the stored value untouched.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      domain.ProfileUpdate  true  "Fields to change"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	_, raw, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var update domain.ProfileUpdate
	if err := c.Bind(&update); err != nil {
		return domain.ErrInvalidInput
	}

	identity, err := h.authService.UpdateProfile(c.Request().Context(), raw, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{
		Message:  "Profile updated successfully",
		Identity: identity,
	})
}

// ForgotPassword accepts a reset request. The response is identical whether
// or not the account exists.
//
// @Summary      Request a password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return domain.ErrInvalidInput
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		} else {
			metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.ResultError).Inc()
		}
		return err
	}

	metrics.PasswordResetRequestsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "If the account exists, a password reset email has been sent"})
}
