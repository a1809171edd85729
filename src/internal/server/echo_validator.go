package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// EchoValidator adapts go-playground/validator to the echo.Validator interface.
type EchoValidator struct {
	validate *validator.Validate
}

// NewEchoValidator creates a validator for request binding
func NewEchoValidator() *EchoValidator {
	return &EchoValidator{validate: validator.New()}
}

// Validate checks struct tags on bound request bodies. Failures surface
// as 400 responses through the error handler.
func (ev *EchoValidator) Validate(i interface{}) error {
	if err := ev.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
