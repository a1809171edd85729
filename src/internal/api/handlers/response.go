package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/casnotes/src/internal/database/models"
	"github.com/casapps/casnotes/src/internal/services"
)

// respond writes the uniform success envelope. Extra payload fields are
// merged beside "success".
func respond(c echo.Context, status int, payload map[string]interface{}) error {
	body := map[string]interface{}{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

// httpError maps service sentinel errors to HTTP status codes. Anything
// unrecognized becomes a 500 with the message surfaced.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrRequestDecided),
		errors.Is(err, services.ErrDuplicateRequest),
		errors.Is(err, services.ErrLabelExists),
		errors.Is(err, services.ErrDuplicateEntry),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrWeakPassword):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrBadCredentials),
		errors.Is(err, services.ErrBadResetCode),
		errors.Is(err, services.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountInactive):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// ErrorHandler is the echo HTTPErrorHandler producing the error envelope
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(status)
		}
	}

	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// currentUserID returns the authenticated user's id from context
func currentUserID(c echo.Context) uuid.UUID {
	id, _ := c.Get("user_id").(uuid.UUID)
	return id
}

// currentRole returns the authenticated user's role from context
func currentRole(c echo.Context) models.Role {
	role, _ := c.Get("role").(models.Role)
	return role
}

// parseUUIDParam parses a path parameter as a UUID
func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
