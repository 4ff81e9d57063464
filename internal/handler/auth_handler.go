package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type signupRequest struct {
	Role        string  `json:"role" validate:"required,oneof=admin client doctor"`
	FirstName   string  `json:"first_name" validate:"required,max=50"`
	LastName    string  `json:"last_name" validate:"required,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	ProfileDesc *string `json:"profile_desc" validate:"omitempty,max=500"`
	Email       string  `json:"email" validate:"required,email,max=100"`
	Password    string  `json:"password" validate:"required,min=6,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		h.Metrics.AuthAttempt("signup", false)
		return err
	}
	sess, err := h.Identity.Signup(c.Request().Context(), service.SignupInput{
		Role:        model.Role(req.Role),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Address:     req.Address,
		ProfileDesc: req.ProfileDesc,
		Email:       req.Email,
		Password:    req.Password,
	})
	h.Metrics.AuthAttempt("signup", err == nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		h.Metrics.AuthAttempt("login", false)
		return err
	}
	sess, err := h.Identity.Login(c.Request().Context(), req.Email, req.Password)
	h.Metrics.AuthAttempt("login", err == nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh takes the refresh token as the bearer credential.
func (h *Handler) Refresh(c echo.Context) error {
	raw := middleware.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	sess, err := h.Identity.Refresh(c.Request().Context(), raw)
	h.Metrics.AuthAttempt("refresh", err == nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, userResponse{User: middleware.CurrentUser(c)})
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.Identity.Logout(c.Request().Context(), middleware.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Msg: "logged out"})
}
