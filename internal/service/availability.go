package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/model"
)

// Ledger is the doctor-owned set of bookable slots.
type Ledger struct {
	repo AvailabilityRepository
	log  zerolog.Logger
}

func NewLedger(repo AvailabilityRepository, log zerolog.Logger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// List scopes doctors to their own slots; admins and clients see all.
func (s *Ledger) List(ctx context.Context, actor *model.User) ([]model.Availability, error) {
	doctorID := ""
	if actor.Role == model.RoleDoctor {
		doctorID = actor.ID
	}
	out, err := s.repo.ListAvailability(ctx, doctorID)
	if err != nil {
		return nil, apperr.Storage("failed to list availability", err)
	}
	return out, nil
}

func (s *Ledger) load(ctx context.Context, id string) (*model.Availability, error) {
	a, err := s.repo.GetAvailability(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("availability not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load availability", err)
	}
	return a, nil
}

func (s *Ledger) Get(ctx context.Context, actor *model.User, id string) (*model.Availability, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleDoctor && a.DoctorID != actor.ID {
		return nil, apperr.Forbidden("unauthorized access")
	}
	return a, nil
}

// Create publishes a slot; a doctor may only publish their own.
func (s *Ledger) Create(ctx context.Context, actor *model.User, doctorID string, at time.Time) (*model.Availability, error) {
	if actor.Role != model.RoleDoctor || actor.ID != doctorID {
		return nil, apperr.Forbidden("doctors can only set their own availability")
	}
	if at.IsZero() {
		return nil, apperr.Validation("date_time is required")
	}
	a := &model.Availability{
		ID:       uuid.New().String(),
		DoctorID: doctorID,
		DateTime: at.UTC(),
	}
	if err := s.repo.CreateAvailability(ctx, a); err != nil {
		return nil, apperr.Storage("failed to create availability", err)
	}
	return a, nil
}

// Update moves a slot. A nil time leaves the record untouched.
func (s *Ledger) Update(ctx context.Context, actor *model.User, id string, at *time.Time) (*model.Availability, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleDoctor || a.DoctorID != actor.ID {
		return nil, apperr.Forbidden("unauthorized access")
	}
	if at == nil {
		return a, nil
	}
	if at.IsZero() {
		return nil, apperr.Validation("date_time is invalid")
	}
	a.DateTime = at.UTC()
	if err := s.repo.UpdateAvailability(ctx, a); err != nil {
		return nil, apperr.Storage("failed to update availability", err)
	}
	return a, nil
}

// Delete is allowed to the owning doctor and to admins.
func (s *Ledger) Delete(ctx context.Context, actor *model.User, id string) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if a.DoctorID != actor.ID {
			return apperr.Forbidden("unauthorized access")
		}
	default:
		return apperr.Forbidden("unauthorized access")
	}
	if err := s.repo.DeleteAvailability(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("availability not found")
		}
		return apperr.Storage("failed to delete availability", err)
	}
	return nil
}
