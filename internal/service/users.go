package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/validate"
)

// UserPatch carries a partial profile update; nil fields are left alone.
type UserPatch struct {
	FirstName   *string     `json:"first_name" validate:"omitempty,min=1,max=50"`
	LastName    *string     `json:"last_name" validate:"omitempty,min=1,max=50"`
	Address     *string     `json:"address" validate:"omitempty,max=255"`
	ProfileDesc *string     `json:"profile_desc" validate:"omitempty,max=500"`
	Status      *string     `json:"status" validate:"omitempty,oneof=available not"`
	Role        *model.Role `json:"role" validate:"omitempty,oneof=admin client doctor"`
	Blocked     *bool       `json:"blocked"`
}

// Users is the user directory: listings, profile edits and account removal.
type Users struct {
	repo UserRepository
	log  zerolog.Logger
}

func NewUsers(repo UserRepository, log zerolog.Logger) *Users {
	return &Users{repo: repo, log: log}
}

func (s *Users) list(ctx context.Context, role model.Role) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx, role)
	if err != nil {
		return nil, apperr.Storage("failed to list users", err)
	}
	return users, nil
}

func (s *Users) ListAll(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, "")
}

func (s *Users) ListClients(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, model.RoleClient)
}

// ListDoctors keeps doctors whose first name contains firstName or whose
// last name contains lastName. With both empty every doctor is returned.
func (s *Users) ListDoctors(ctx context.Context, firstName, lastName string) ([]model.User, error) {
	doctors, err := s.list(ctx, model.RoleDoctor)
	if err != nil {
		return nil, err
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return doctors, nil
	}
	return lo.Filter(doctors, func(d model.User, _ int) bool {
		return (firstName != "" && strings.Contains(d.FirstName, firstName)) ||
			(lastName != "" && strings.Contains(d.LastName, lastName))
	}), nil
}

func (s *Users) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.UserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	return u, nil
}

// Update lets a user edit their own profile and an admin edit anyone's.
// Only admins may touch role or blocked.
func (s *Users) Update(ctx context.Context, actor *model.User, id string, p UserPatch) (*model.User, error) {
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	isAdmin := actor.Role == model.RoleAdmin
	if !isAdmin && actor.ID != u.ID {
		return nil, apperr.Forbidden("access forbidden")
	}
	if !isAdmin && (p.Role != nil || p.Blocked != nil) {
		return nil, apperr.Forbidden("you cannot change the role or blocked flag")
	}

	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Address != nil {
		u.Address = p.Address
	}
	if p.ProfileDesc != nil {
		u.ProfileDesc = p.ProfileDesc
	}
	if p.Status != nil {
		if *p.Status != model.UserAvailable && *p.Status != model.UserNotAvailable {
			return nil, apperr.Validation("status must be one of available, not")
		}
		u.Status = *p.Status
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, apperr.Validation("role must be one of admin, client, doctor")
		}
		u.Role = *p.Role
	}
	if p.Blocked != nil {
		u.Blocked = *p.Blocked
	}
	if u.FirstName == "" || u.LastName == "" {
		return nil, apperr.Validation("first_name and last_name cannot be empty")
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Storage("failed to update user", err)
	}
	return u, nil
}

// Delete removes an account and everything that references it. The
// account owner or an admin may do this.
func (s *Users) Delete(ctx context.Context, actor *model.User, id string) error {
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != model.RoleAdmin && actor.ID != u.ID {
		return apperr.Forbidden("user can access only their own account")
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Storage("failed to delete user", err)
	}
	s.log.Info().Str("user_id", id).Str("by", actor.ID).Msg("user deleted")
	return nil
}
