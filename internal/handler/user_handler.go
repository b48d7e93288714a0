package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "backoffice/internal/errors"
	"backoffice/internal/flash"
	"backoffice/internal/model"
	"backoffice/internal/pagination"
	"backoffice/internal/repository"
	"backoffice/internal/service"
)

const usersPath = "/users"

// UserHandler serves the admin user directory.
type UserHandler struct {
	responder
	svc            service.UserService
	perPageDefault int
	perPageMax     int
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, flashes *flash.Store, perPageDefault, perPageMax int) *UserHandler {
	return &UserHandler{
		responder:      responder{flash: flashes},
		svc:            svc,
		perPageDefault: perPageDefault,
		perPageMax:     perPageMax,
	}
}

// CreateUserRequest represents a new account submitted by an admin.
type CreateUserRequest struct {
	Name                 string `json:"name" form:"name" validate:"required,max=255"`
	Email                string `json:"email" form:"email" validate:"required,email,max=255"`
	Password             string `json:"password" form:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
	Role                 string `json:"role" form:"role" validate:"required,oneof=admin staff researcher"`
}

// UpdateUserRequest carries the fields to change. Empty fields are ignored.
type UpdateUserRequest struct {
	Name  string `json:"name" form:"name" validate:"omitempty,max=255"`
	Email string `json:"email" form:"email" validate:"omitempty,email,max=255"`
	Role  string `json:"role" form:"role" validate:"omitempty,oneof=admin staff researcher"`
}

// ResetPasswordRequest sets a new password for another user.
type ResetPasswordRequest struct {
	Password             string `json:"password" form:"password" validate:"required,min=8,eqfield=PasswordConfirmation"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

// UserFilters echoes the directory query back to the client.
type UserFilters struct {
	Search  string `json:"search"`
	PerPage int    `json:"per_page"`
}

// UserListResponse is the directory page payload.
type UserListResponse struct {
	Users     pagination.Page[model.User] `json:"users"`
	UserRoles []model.RoleOption          `json:"user_roles"`
	Filters   UserFilters                 `json:"filters"`
	Flash     *flash.Result               `json:"flash"`
}

// ListUsers godoc
// @Summary List users
// @Description Paginated directory, newest first. search matches name, email or role.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive substring"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Page size" default(10)
// @Success 200 {object} UserListResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	params := pagination.ParseParams(c.QueryParams(), h.perPageDefault, h.perPageMax)
	search := strings.TrimSpace(c.QueryParam("search"))

	users, total, err := h.svc.ListUsers(c.Request().Context(), repository.UserFilter{
		Search:  search,
		Page:    params.Page,
		PerPage: params.PerPage,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, UserListResponse{
		Users:     pagination.New(users, total, params, requestURL(c)),
		UserRoles: model.RoleOptions(),
		Filters:   UserFilters{Search: search, PerPage: params.PerPage},
		Flash:     h.flash.Pop(c),
	})
}

// NotFound answers the single-user views, which are not offered.
// @Summary Unsupported user views
// @Tags users
// @Security BearerAuth
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /users/create [get]
// @Router /users/{id} [get]
// @Router /users/{id}/edit [get]
func (h *UserHandler) NotFound(c echo.Context) error {
	return echo.NewHTTPError(http.StatusNotFound, apperrors.ErrorResponse{
		Error: "not found",
		Code:  "NOT_FOUND",
	})
}

// CreateUser godoc
// @Summary Create user
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} flash.Result
// @Success 302 {string} string "redirect with flash"
// @Failure 422 {object} flash.Result
// @Router /users [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}
	if verr, err := validate(c, &req); err != nil {
		return err
	} else if verr != nil {
		return h.invalid(c, verr, usersPath)
	}

	_, err := h.svc.CreateUser(c.Request().Context(), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if verr := lifecycleValidation(err); verr != nil {
		return h.invalid(c, verr, usersPath)
	}
	if err != nil {
		return httpError(err)
	}

	return h.result(c, http.StatusCreated, flash.Success("User created."), usersPath)
}

// UpdateUser godoc
// @Summary Update user
// @Description Partial update. The user's email is marked as verified.
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "Fields to change"
// @Success 200 {object} flash.Result
// @Success 302 {string} string "redirect with flash"
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 422 {object} flash.Result
// @Router /users/{id} [put]
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.NotFound(c)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}
	if verr, err := validate(c, &req); err != nil {
		return err
	} else if verr != nil {
		return h.invalid(c, verr, usersPath)
	}

	var in service.UpdateUserInput
	if name := strings.TrimSpace(req.Name); name != "" {
		in.Name = &name
	}
	if req.Email != "" {
		in.Email = &req.Email
	}
	if req.Role != "" {
		role := model.Role(req.Role)
		in.Role = &role
	}

	_, err := h.svc.UpdateUser(c.Request().Context(), id, in)
	if verr := lifecycleValidation(err); verr != nil {
		return h.invalid(c, verr, usersPath)
	}
	if err != nil {
		return httpError(err)
	}

	return h.result(c, http.StatusOK, flash.Success("User updated."), usersPath)
}

// DeleteUser godoc
// @Summary Delete user
// @Description Failures are reported as an error result, never as a server error.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} flash.Result
// @Success 302 {string} string "redirect with flash"
// @Failure 400 {object} flash.Result
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	failed := flash.Failure("User could not be deleted.")

	id, ok := parseID(c)
	if !ok {
		return h.result(c, http.StatusBadRequest, failed, usersPath)
	}
	if err := h.svc.DeleteUser(c.Request().Context(), id); err != nil {
		return h.result(c, http.StatusBadRequest, failed, usersPath)
	}

	return h.result(c, http.StatusOK, flash.Success("User deleted."), usersPath)
}

// ResetPassword godoc
// @Summary Force a new password
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} flash.Result
// @Success 302 {string} string "redirect with flash"
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 422 {object} flash.Result
// @Router /users/{id}/reset-password [patch]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return h.NotFound(c)
	}

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest()
	}
	if verr, err := validate(c, &req); err != nil {
		return err
	} else if verr != nil {
		return h.invalid(c, verr, usersPath)
	}

	if err := h.svc.ForceResetPassword(c.Request().Context(), id, req.Password); err != nil {
		return httpError(err)
	}

	return h.result(c, http.StatusOK, flash.Success("Password reset."), usersPath)
}

// lifecycleValidation turns domain conflicts into field errors.
func lifecycleValidation(err error) *apperrors.ValidationError {
	switch {
	case errors.Is(err, apperrors.ErrEmailTaken):
		return apperrors.NewValidationError("email", "The email has already been taken.")
	case errors.Is(err, apperrors.ErrInvalidRole):
		return apperrors.NewValidationError("role", "The selected role is invalid.")
	}
	return nil
}
