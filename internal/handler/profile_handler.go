package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "backoffice/internal/errors"
	"backoffice/internal/flash"
	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/service"
)

const (
	profilePath = "/profile"

	// multipartSlack covers boundaries and part headers around the photo.
	multipartSlack = 64 << 10
)

// ProfileHandler serves the signed-in user's own profile and photo.
type ProfileHandler struct {
	responder
	photos service.PhotoService
	log    *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(photos service.PhotoService, flashes *flash.Store, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{responder: responder{flash: flashes}, photos: photos, log: log}
}

// PhotoResponse acknowledges a photo operation.
type PhotoResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Photo   *string `json:"photo,omitempty"`
}

// ProfileResponse is the current user plus any pending flash.
type ProfileResponse struct {
	User  *model.User   `json:"user"`
	Flash *flash.Result `json:"flash"`
}

// Show godoc
// @Summary Current user profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) Show(c echo.Context) error {
	return c.JSON(http.StatusOK, ProfileResponse{
		User:  middleware.Actor(c),
		Flash: h.flash.Pop(c),
	})
}

// UploadPhoto godoc
// @Summary Upload profile photo
// @Description Replaces any existing photo. jpeg or png, at most 2048 KB.
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param photo formData file true "Image file"
// @Success 200 {object} PhotoResponse
// @Success 302 {string} string "redirect back with field errors"
// @Failure 422 {object} flash.Result
// @Failure 400 {object} PhotoResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /profile/photo [post]
func (h *ProfileHandler) UploadPhoto(c echo.Context) error {
	failed := PhotoResponse{Success: false, Message: "Profile photo could not be updated"}
	actor := middleware.Actor(c)

	maxPhoto := h.photos.MaxBytes()
	limit := maxPhoto + multipartSlack
	req := c.Request()
	if req.ContentLength > limit {
		return h.invalid(c, service.PhotoTooLarge(maxPhoto), profilePath)
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)

	header, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return h.invalid(c, service.PhotoTooLarge(maxPhoto), profilePath)
		}
		return c.JSON(http.StatusBadRequest, failed)
	}
	file, err := header.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, failed)
	}
	defer file.Close()

	user, err := h.photos.Upload(c.Request().Context(), actor.ID, file, header.Size)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			return h.invalid(c, verr, profilePath)
		}
		h.log.Warn("upload photo", zap.Uint("user_id", actor.ID), zap.Error(err))
		return c.JSON(http.StatusBadRequest, failed)
	}

	return c.JSON(http.StatusOK, PhotoResponse{
		Success: true,
		Message: "Profile photo updated",
		Photo:   user.Photo,
	})
}

// DeletePhoto godoc
// @Summary Delete profile photo
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PhotoResponse
// @Failure 400 {object} PhotoResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /profile/photo [delete]
func (h *ProfileHandler) DeletePhoto(c echo.Context) error {
	actor := middleware.Actor(c)

	if err := h.photos.Delete(c.Request().Context(), actor.ID); err != nil {
		if errors.Is(err, apperrors.ErrNoPhoto) {
			return c.JSON(http.StatusBadRequest, PhotoResponse{Success: false, Message: "No profile photo to delete"})
		}
		h.log.Warn("delete photo", zap.Uint("user_id", actor.ID), zap.Error(err))
		return c.JSON(http.StatusBadRequest, PhotoResponse{Success: false, Message: "Profile photo could not be deleted"})
	}

	return c.JSON(http.StatusOK, PhotoResponse{Success: true, Message: "Profile photo deleted"})
}
