package service

import (
	"context"
	"errors"
	"time"

	"clinic-scheduler/internal/model"
)

// Repositories return ErrNotFound for absent rows and ErrDuplicate for
// unique violations. Both store implementations alias these.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByID(ctx context.Context, id string) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	// ListUsers returns every user when role is empty.
	ListUsers(ctx context.Context, role model.Role) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	// DeleteUser removes the user and every appointment, availability
	// slot and refresh token referencing it.
	DeleteUser(ctx context.Context, id string) error
}

type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type AvailabilityRepository interface {
	CreateAvailability(ctx context.Context, a *model.Availability) error
	GetAvailability(ctx context.Context, id string) (*model.Availability, error)
	// ListAvailability returns every slot when doctorID is empty.
	ListAvailability(ctx context.Context, doctorID string) ([]model.Availability, error)
	UpdateAvailability(ctx context.Context, a *model.Availability) error
	DeleteAvailability(ctx context.Context, id string) error
}

// AppointmentFilter narrows a listing; empty fields do not filter.
type AppointmentFilter struct {
	UserID   string
	DoctorID string
}

type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status model.Status) error
}

// Transactor runs fn in one transaction; fn's ctx carries it. Any error
// returned by fn rolls the transaction back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repositories interface {
	UserRepository
	TokenRepository
	AvailabilityRepository
	AppointmentRepository
	Transactor
}
