// Package middleware holds the authentication and authorization layers
// applied per route group.
package middleware

import (
	"context"
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"backoffice/internal/auth"
	apperrors "backoffice/internal/errors"
	"backoffice/internal/model"
)

const (
	claimsKey = "claims"
	actorKey  = "actor"

	// AccessTokenCookie is the cookie consulted when no bearer header is sent.
	AccessTokenCookie = "access_token"
)

// ActorLoader resolves the user behind a token.
type ActorLoader interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate validates the access token, rejects revoked tokens and
// stores the current user on the context.
func Authenticate(jwtService *auth.JWTService, users ActorLoader, tokens auth.TokenStoreInterface) echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,cookie:" + AccessTokenCookie,
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return jwtService.Parse(token, auth.KindAccess)
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return unauthenticated()
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return unauthenticated()
			}

			ctx := c.Request().Context()
			if revoked, _ := tokens.IsAccessTokenBlacklisted(ctx, claims.ID); revoked {
				return unauthenticated()
			}

			user, err := users.GetUser(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, apperrors.ErrUserNotFound) {
					return unauthenticated()
				}
				return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
					Error: "failed to load user",
					Code:  "INTERNAL_ERROR",
				})
			}

			c.Set(actorKey, user)
			return next(c)
		})
	}
}

// RequireRole lets the request through only when the actor holds role.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := Actor(c)
			if actor == nil || actor.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: "this action is unauthorized",
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// Actor returns the authenticated user, or nil.
func Actor(c echo.Context) *model.User {
	user, _ := c.Get(actorKey).(*model.User)
	return user
}

// Claims returns the validated access token claims, or nil.
func Claims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

func unauthenticated() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "unauthenticated",
		Code:  "UNAUTHENTICATED",
	})
}
