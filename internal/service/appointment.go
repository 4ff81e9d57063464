package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/validate"
)

type bookingRepos interface {
	AppointmentRepository
	UserRepository
}

type BookingInput struct {
	UserID             string    `json:"user_id" validate:"required"`
	DoctorID           string    `json:"doctor_id" validate:"required"`
	DateTime           time.Time `json:"date_time"`
	ClientRequirements *string   `json:"client_requirements" validate:"omitempty,max=500"`
}

// Bookings manages appointments between a client and a doctor and the
// status lifecycle up-coming -> on-going -> completed, with canceled
// reachable from any non-terminal state.
type Bookings struct {
	repo bookingRepos
	log  zerolog.Logger
}

func NewBookings(repo bookingRepos, log zerolog.Logger) *Bookings {
	return &Bookings{repo: repo, log: log}
}

func (s *Bookings) List(ctx context.Context, actor *model.User) ([]model.Appointment, error) {
	var f AppointmentFilter
	switch actor.Role {
	case model.RoleDoctor:
		f.DoctorID = actor.ID
	case model.RoleClient:
		f.UserID = actor.ID
	case model.RoleAdmin:
	default:
		return nil, apperr.Forbidden("unauthorized access")
	}
	out, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, apperr.Storage("failed to list appointments", err)
	}
	return out, nil
}

func (s *Bookings) load(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := s.repo.GetAppointment(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("appointment not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load appointment", err)
	}
	return a, nil
}

// Get hides appointments from doctors and clients who are not a party.
func (s *Bookings) Get(ctx context.Context, actor *model.User, id string) (*model.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if a.DoctorID != actor.ID {
			return nil, apperr.Forbidden("unauthorized access")
		}
	case model.RoleClient:
		if a.UserID != actor.ID {
			return nil, apperr.Forbidden("unauthorized access")
		}
	default:
		return nil, apperr.Forbidden("unauthorized access")
	}
	return a, nil
}

func (s *Bookings) requireRole(ctx context.Context, id string, role model.Role) error {
	u, err := s.repo.UserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return apperr.Validation(fmt.Sprintf("%s %s does not exist", role, id))
	}
	if err != nil {
		return apperr.Storage("failed to load user", err)
	}
	if u.Role != role {
		return apperr.Validation(fmt.Sprintf("user %s is not a %s", id, role))
	}
	return nil
}

// Create books an appointment. Only the client named on the booking may
// create it, and doctor_id must reference a doctor.
func (s *Bookings) Create(ctx context.Context, actor *model.User, in BookingInput) (*model.Appointment, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.DateTime.IsZero() {
		return nil, apperr.Validation("date_time is required")
	}
	if err := s.requireRole(ctx, in.UserID, model.RoleClient); err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, in.DoctorID, model.RoleDoctor); err != nil {
		return nil, err
	}
	if actor.Role != model.RoleClient || actor.ID != in.UserID {
		return nil, apperr.Forbidden("clients can only book appointments for themselves")
	}

	a := &model.Appointment{
		ID:                 uuid.New().String(),
		UserID:             in.UserID,
		DoctorID:           in.DoctorID,
		DateTime:           in.DateTime.UTC(),
		Status:             model.StatusUpcoming,
		ClientRequirements: in.ClientRequirements,
	}
	if err := s.repo.CreateAppointment(ctx, a); err != nil {
		return nil, apperr.Storage("failed to create appointment", err)
	}
	s.log.Info().Str("appointment_id", a.ID).Str("client_id", a.UserID).Str("doctor_id", a.DoctorID).Msg("appointment booked")
	return a, nil
}

// Cancel is open to either party. Cancelling a canceled appointment
// succeeds again; a completed one cannot be canceled.
func (s *Bookings) Cancel(ctx context.Context, actor *model.User, id string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, model.StatusCanceled, model.Roles(model.RoleDoctor, model.RoleClient))
}

// Advance moves an appointment to on-going or completed. Only the doctor
// party may do this.
func (s *Bookings) Advance(ctx context.Context, actor *model.User, id string, to model.Status) (*model.Appointment, error) {
	if to != model.StatusOngoing && to != model.StatusCompleted {
		return nil, apperr.Validation("status must be on-going or completed, use cancel to cancel")
	}
	return s.transition(ctx, actor, id, to, model.Roles(model.RoleDoctor))
}

func (s *Bookings) transition(ctx context.Context, actor *model.User, id string, to model.Status, parties model.RoleSet) (*model.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !parties.Has(actor.Role) || !a.Party(actor.ID) {
		return nil, apperr.Forbidden("unauthorized access")
	}
	if actor.Role == model.RoleDoctor && a.DoctorID != actor.ID ||
		actor.Role == model.RoleClient && a.UserID != actor.ID {
		return nil, apperr.Forbidden("unauthorized access")
	}
	if !a.Status.CanTransition(to) {
		if a.Status.Terminal() {
			return nil, apperr.Conflict(fmt.Sprintf("appointment is already %s", a.Status))
		}
		return nil, apperr.Conflict(fmt.Sprintf("appointment is %s and cannot become %s", a.Status, to))
	}
	if a.Status == to {
		return a, nil
	}
	if err := s.repo.UpdateAppointmentStatus(ctx, a.ID, to); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Storage("failed to update appointment", err)
	}
	s.log.Info().Str("appointment_id", a.ID).Str("from", string(a.Status)).Str("to", string(to)).Str("by", actor.ID).Msg("appointment status changed")
	a.Status = to
	return a, nil
}
