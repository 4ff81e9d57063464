package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/validate"
)

type requestValidator struct{}

// NewValidator plugs the shared tag validation into echo's Bind/Validate.
func NewValidator() echo.Validator {
	return requestValidator{}
}

func (requestValidator) Validate(i any) error {
	return validate.Struct(i)
}

// bind decodes the body into dst and validates it.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return c.Validate(dst)
}

func pathID(c echo.Context) (string, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return "", apperr.Validation("invalid id")
	}
	return id.String(), nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := model.ParseDateTime(s)
	if err != nil {
		return time.Time{}, apperr.Validation(err.Error())
	}
	return t, nil
}
