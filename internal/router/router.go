package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	apperrors "backoffice/internal/errors"
	"backoffice/internal/handler"
	"backoffice/internal/logging"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
)

const (
	bodyLimit        = "1M"
	overrideMaxBytes = 1 << 20
	photoRoute       = "/profile/photo"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	log *zap.Logger,
	authenticate echo.MiddlewareFunc,
	publicFiles http.FileSystem,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
) {
	// HTML forms tunnel PUT, PATCH and DELETE through POST.
	// Large or unsized bodies are not parsed for the override field.
	e.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
		Skipper: func(c echo.Context) bool {
			n := c.Request().ContentLength
			return n < 0 || n > overrideMaxBytes
		},
	}))
	e.Use(echomw.RequestID())
	e.Use(logging.RequestLogger(log))
	e.Use(echomw.Recover())
	// The photo route enforces its own limit and answers with a field error.
	e.Use(echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit: bodyLimit,
		Skipper: func(c echo.Context) bool {
			return c.Path() == photoRoute
		},
	}))

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/storage/*", echo.WrapHandler(http.StripPrefix("/storage", http.FileServer(publicFiles))))

	// Public routes
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/refresh", authHandler.Refresh)

	// Any authenticated user
	e.POST("/auth/logout", authHandler.Logout, authenticate)
	e.GET("/profile", profileHandler.Show, authenticate)
	e.POST(photoRoute, profileHandler.UploadPhoto, authenticate)
	e.DELETE(photoRoute, profileHandler.DeletePhoto, authenticate)

	// Admin only
	users := e.Group("/users", authenticate, middleware.RequireRole(model.RoleAdmin))
	users.GET("", userHandler.ListUsers)
	users.POST("", userHandler.CreateUser)
	users.GET("/create", userHandler.NotFound)
	users.GET("/:id", userHandler.NotFound)
	users.GET("/:id/edit", userHandler.NotFound)
	users.PUT("/:id", userHandler.UpdateUser)
	users.PATCH("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)
	users.PATCH("/:id/reset-password", userHandler.ResetPassword)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator reports field errors under their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return apperrors.FromValidator(err)
	}
	return nil
}
