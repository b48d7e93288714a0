package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"backoffice/internal/auth"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/service"
)

// AuthHandler issues and revokes the tokens that identify the actor.
type AuthHandler struct {
	auth         service.AuthService
	secureCookie bool
	log          *zap.Logger
}

// NewAuthHandler creates an auth handler. secureCookie marks the
// access_token cookie Secure.
func NewAuthHandler(authService service.AuthService, secureCookie bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, secureCookie: secureCookie, log: log}
}

// LoginRequest carries sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenRequest carries a refresh token, for refresh and logout.
type TokenRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// AuthResponse is returned by login and refresh.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         *model.User `json:"user,omitempty"`
}

// Login godoc
// @Summary Sign in
// @Description Exchanges credentials for an access and refresh token pair. The access token is also set as the access_token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 422 {object} apperrors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	access, refresh, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.failure(err, apperrors.ErrInvalidCredentials, "login")
	}

	c.SetCookie(h.accessCookie(access, auth.AccessTokenExpiry))
	return c.JSON(http.StatusOK, AuthResponse{AccessToken: access, RefreshToken: refresh, User: user})
}

// Refresh godoc
// @Summary Refresh the access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Refresh token"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req TokenRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	access, err := h.auth.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return h.failure(err, apperrors.ErrInvalidRefreshToken, "refresh")
	}

	c.SetCookie(h.accessCookie(access, auth.AccessTokenExpiry))
	return c.JSON(http.StatusOK, AuthResponse{AccessToken: access})
}

// Logout godoc
// @Summary Sign out
// @Description Revokes the refresh token and the access token used for this call.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TokenRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req TokenRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), req.RefreshToken, middleware.Claims(c)); err != nil {
		return h.failure(err, apperrors.ErrInvalidRefreshToken, "logout")
	}

	c.SetCookie(h.accessCookie("", -time.Second))
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// failure maps expected to its HTTP error and logs anything else as a 500.
func (h *AuthHandler) failure(err, expected error, op string) error {
	if !errors.Is(err, expected) {
		h.log.Error(op+" failed", zap.Error(err))
	}
	return httpError(err)
}

// accessCookie builds the access_token cookie. A negative ttl clears it.
func (h *AuthHandler) accessCookie(value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
