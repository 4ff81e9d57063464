package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-scheduler/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler writes every failure as {"error": "<message>"}. Errors
// outside the apperr taxonomy are reported as internal without detail.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := apperr.HTTPStatus(err)
	msg := apperr.Message(err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code == http.StatusInternalServerError {
		msg = "internal server error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorResponse{Error: msg})
}
