package service

import (
	"context"
	"errors"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/model"
)

// Admit is the role-membership check on an already loaded user.
func Admit(u *model.User, allowed model.RoleSet) error {
	if u == nil {
		return apperr.NotFound("user not found")
	}
	if u.Blocked {
		return apperr.Forbidden("your account is blocked, contact an admin")
	}
	if !allowed.Has(u.Role) {
		return apperr.Forbidden("unauthorized access")
	}
	return nil
}

// Gate resolves an authenticated user id and admits it against a role set.
// Per-record ownership is checked by the domain operations afterwards.
type Gate struct {
	users UserRepository
}

func NewGate(users UserRepository) *Gate {
	return &Gate{users: users}
}

func (g *Gate) Authorize(ctx context.Context, uid string, allowed model.RoleSet) (*model.User, error) {
	if uid == "" {
		return nil, apperr.Unauthenticated("authorization token is missing or invalid")
	}
	u, err := g.users.UserByID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	if err := Admit(u, allowed); err != nil {
		return nil, err
	}
	return u, nil
}
