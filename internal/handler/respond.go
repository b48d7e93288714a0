package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "backoffice/internal/errors"
	"backoffice/internal/flash"
)

// responder sends an operation result either as JSON or as a flash message
// followed by a redirect, depending on what the client asked for.
type responder struct {
	flash *flash.Store
}

// result answers JSON clients with status and everyone else with a 302 to
// redirectTo carrying res as a flash.
func (r responder) result(c echo.Context, status int, res flash.Result, redirectTo string) error {
	if wantsJSON(c) {
		return c.JSON(status, res)
	}
	if err := r.flash.Put(c, res); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, redirectTo)
}

// invalid reports field errors: 422 for JSON clients, otherwise a redirect
// back to the referring page.
func (r responder) invalid(c echo.Context, verr *apperrors.ValidationError, fallback string) error {
	return r.result(c, http.StatusUnprocessableEntity, flash.Invalid(verr.Fields), back(c, fallback))
}

// validate runs the echo validator and converts failures to a
// ValidationError. Other errors pass through unchanged.
func validate(c echo.Context, req interface{}) (*apperrors.ValidationError, error) {
	err := c.Validate(req)
	if err == nil {
		return nil, nil
	}
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		return verr, nil
	}
	return nil, err
}

// bindValid binds and validates an API request, answering 400 or 422.
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest()
	}
	if err := c.Validate(req); err != nil {
		return httpError(err)
	}
	return nil
}

func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		req.Header.Get(echo.HeaderXRequestedWith) == "XMLHttpRequest"
}

// back returns the same-host Referer path, or fallback.
func back(c echo.Context, fallback string) string {
	ref := c.Request().Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request().Host) {
		return fallback
	}
	return u.RequestURI()
}

// requestURL rebuilds the absolute URL of the current request.
func requestURL(c echo.Context) *url.URL {
	u := *c.Request().URL
	u.Scheme = c.Scheme()
	u.Host = c.Request().Host
	return &u
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func httpError(err error) error {
	he := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

func badRequest() error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}
