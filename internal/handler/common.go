// Package handler contains the HTTP handlers for all API endpoints.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database round trip started from a handler.
const dbTimeout = 5 * time.Second

// reqContext derives a bounded context from the incoming request.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// CustomValidator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate(&dto).
type CustomValidator struct {
	validate *validator.Validate
}

// NewValidator builds the validator Echo uses for request DTOs.
func NewValidator() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate implements echo.Validator.  Field errors surface as 400s with
// the validator's message so clients see which constraint failed.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// pathID parses a numeric :param from the route.
func pathID(c echo.Context, name string) (uint64, bool) {
	var id uint64
	if err := echo.PathParamsBinder(c).Uint64(name, &id).BindError(); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
