package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type updateUserRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=50"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	ProfileDesc *string `json:"profile_desc" validate:"omitempty,max=500"`
	Status      *string `json:"status" validate:"omitempty,oneof=available not"`
	Role        *string `json:"role" validate:"omitempty,oneof=admin client doctor"`
	Blocked     *bool   `json:"blocked"`
}

// Collections and single users are wrapped under a named key; the admin
// listing stays a bare array.
type usersResponse struct {
	Users []model.User `json:"users"`
}

type doctorsResponse struct {
	Doctors []model.User `json:"doctors"`
}

type userResponse struct {
	Msg  string      `json:"msg,omitempty"`
	User *model.User `json:"user"`
}

func (r updateUserRequest) patch() service.UserPatch {
	p := service.UserPatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Address:     r.Address,
		ProfileDesc: r.ProfileDesc,
		Status:      r.Status,
		Blocked:     r.Blocked,
	}
	if r.Role != nil {
		role := model.Role(*r.Role)
		p.Role = &role
	}
	return p
}

func (h *Handler) ListClients(c echo.Context) error {
	users, err := h.Users.ListClients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usersResponse{Users: users})
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.Users.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.Users.ListDoctors(c.Request().Context(), c.QueryParam("first_name"), c.QueryParam("last_name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctorsResponse{Doctors: doctors})
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{User: u})
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.Users.Update(c.Request().Context(), middleware.CurrentUser(c), id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Msg: "user updated", User: u})
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Users.Delete(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Msg: "user deleted"})
}

// ToggleBlock flips the blocked flag and returns the user in its new state.
func (h *Handler) ToggleBlock(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.Identity.ToggleBlocked(c.Request().Context(), id)
	if err != nil {
		return err
	}
	state := "unblocked"
	if u.Blocked {
		state = "blocked"
	}
	return c.JSON(http.StatusOK, userResponse{Msg: fmt.Sprintf("user %s has been %s", u.Email, state), User: u})
}
