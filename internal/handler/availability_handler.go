package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
)

type createAvailabilityRequest struct {
	DoctorID string `json:"doctor_id" validate:"required,uuid"`
	DateTime string `json:"date_time" validate:"required"`
}

type updateAvailabilityRequest struct {
	DateTime *string `json:"date_time"`
}

type availabilityResponse struct {
	Msg          string              `json:"msg,omitempty"`
	Availability *model.Availability `json:"availability"`
}

func (h *Handler) ListAvailability(c echo.Context) error {
	out, err := h.Ledger.List(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.Ledger.Get(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, availabilityResponse{Availability: a})
}

func (h *Handler) CreateAvailability(c echo.Context) error {
	var req createAvailabilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	at, err := parseDateTime(req.DateTime)
	if err != nil {
		return err
	}
	a, err := h.Ledger.Create(c.Request().Context(), middleware.CurrentUser(c), req.DoctorID, at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, availabilityResponse{Msg: "availability created", Availability: a})
}

// UpdateAvailability without date_time returns the record unchanged.
func (h *Handler) UpdateAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateAvailabilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	var at *time.Time
	if req.DateTime != nil {
		t, err := parseDateTime(*req.DateTime)
		if err != nil {
			return err
		}
		at = &t
	}
	a, err := h.Ledger.Update(c.Request().Context(), middleware.CurrentUser(c), id, at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, availabilityResponse{Msg: "availability updated", Availability: a})
}

func (h *Handler) DeleteAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Ledger.Delete(c.Request().Context(), middleware.CurrentUser(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, message{Msg: "availability deleted"})
}
