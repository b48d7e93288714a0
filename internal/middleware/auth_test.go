package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/auth"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/model"
)

type stubUsers map[uint]*model.User

func (s stubUsers) GetUser(_ context.Context, id uint) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

type stubTokens struct {
	auth.TokenStoreInterface
	revoked map[string]bool
}

func (s stubTokens) IsAccessTokenBlacklisted(_ context.Context, tokenID string) (bool, error) {
	return s.revoked[tokenID], nil
}

func newTestServer(t *testing.T, revoked map[string]bool) (*echo.Echo, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService("test-secret")
	users := stubUsers{
		1: {ID: 1, Email: "admin@example.com", Role: model.RoleAdmin},
		2: {ID: 2, Email: "staff@example.com", Role: model.RoleStaff},
	}

	e := echo.New()
	secured := e.Group("", Authenticate(jwtService, users, stubTokens{revoked: revoked}))
	secured.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, Actor(c).Email)
	})
	secured.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireRole(model.RoleAdmin))
	return e, jwtService
}

func accessToken(t *testing.T, svc *auth.JWTService, id uint) string {
	t.Helper()
	token, err := svc.GenerateAccessToken(id, "x@example.com")
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	e, jwtService := newTestServer(t, nil)
	_, refresh, err := jwtService.GenerateRefreshToken(1, "admin@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		setup      func(*http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no token",
			setup:      func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "malformed token",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer nope")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "bearer header",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken(t, jwtService, 1))
			},
			wantStatus: http.StatusOK,
			wantBody:   "admin@example.com",
		},
		{
			name: "cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: accessToken(t, jwtService, 2)})
			},
			wantStatus: http.StatusOK,
			wantBody:   "staff@example.com",
		},
		{
			name: "refresh token is not an access token",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+refresh)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "user no longer exists",
			setup: func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken(t, jwtService, 99))
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_RevokedToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	token := accessToken(t, jwtService, 1)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)

	e, _ := newTestServer(t, map[string]bool{claims.ID: true})
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e, jwtService := newTestServer(t, nil)

	for id, want := range map[uint]int{1: http.StatusOK, 2: http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+accessToken(t, jwtService, id))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "user %d", id)
	}
}

func TestRequireRole_WithoutActor(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := RequireRole(model.RoleAdmin)(func(echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}
