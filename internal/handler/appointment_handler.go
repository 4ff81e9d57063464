package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type createAppointmentRequest struct {
	UserID             string  `json:"user_id" validate:"required,uuid"`
	DoctorID           string  `json:"doctor_id" validate:"required,uuid"`
	DateTime           string  `json:"date_time" validate:"required"`
	ClientRequirements *string `json:"client_requirements" validate:"omitempty,max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type appointmentResponse struct {
	Msg         string             `json:"msg,omitempty"`
	Appointment *model.Appointment `json:"appointment"`
}

func (h *Handler) ListAppointments(c echo.Context) error {
	out, err := h.Bookings.List(c.Request().Context(), middleware.CurrentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.Bookings.Get(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appointmentResponse{Appointment: a})
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createAppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	at, err := parseDateTime(req.DateTime)
	if err != nil {
		return err
	}
	a, err := h.Bookings.Create(c.Request().Context(), middleware.CurrentUser(c), service.BookingInput{
		UserID:             req.UserID,
		DoctorID:           req.DoctorID,
		DateTime:           at,
		ClientRequirements: req.ClientRequirements,
	})
	if err != nil {
		return err
	}
	h.Metrics.AppointmentStatus(string(a.Status))
	return c.JSON(http.StatusCreated, appointmentResponse{Msg: "appointment created", Appointment: a})
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.Bookings.Cancel(c.Request().Context(), middleware.CurrentUser(c), id)
	if err != nil {
		return err
	}
	h.Metrics.AppointmentStatus(string(a.Status))
	return c.JSON(http.StatusOK, appointmentResponse{Msg: "appointment canceled", Appointment: a})
}

func (h *Handler) UpdateAppointmentStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	to, err := model.ParseStatus(req.Status)
	if err != nil {
		return apperr.Validation(err.Error())
	}
	a, err := h.Bookings.Advance(c.Request().Context(), middleware.CurrentUser(c), id, to)
	if err != nil {
		return err
	}
	h.Metrics.AppointmentStatus(string(a.Status))
	return c.JSON(http.StatusOK, appointmentResponse{Msg: "appointment updated", Appointment: a})
}
