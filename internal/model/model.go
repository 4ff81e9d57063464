package model

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleDoctor Role = "doctor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleDoctor:
		return true
	}
	return false
}

// RoleSet is the set of roles admitted by a gate.
type RoleSet map[Role]bool

func Roles(rs ...Role) RoleSet {
	set := make(RoleSet, len(rs))
	for _, r := range rs {
		set[r] = true
	}
	return set
}

func (s RoleSet) Has(r Role) bool { return s[r] }

// AnyRole admits every known role.
var AnyRole = Roles(RoleAdmin, RoleClient, RoleDoctor)

const (
	UserAvailable    = "available"
	UserNotAvailable = "not"
)

type User struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Address      *string   `json:"address"`
	ProfileDesc  *string   `json:"profile_desc"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	Blocked      bool      `json:"blocked"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Availability struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctor_id"`
	DateTime  time.Time `json:"date_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Appointment struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	DoctorID           string    `json:"doctor_id"`
	DateTime           time.Time `json:"date_time"`
	Status             Status    `json:"status"`
	ClientRequirements *string   `json:"client_requirements"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Party reports whether uid is the client or the doctor on the booking.
func (a *Appointment) Party(uid string) bool {
	return a.UserID == uid || a.DoctorID == uid
}

// accepted layouts for date_time input; naive forms are read as UTC
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date_time is required")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date_time %q is not an ISO 8601 timestamp", s)
}
