// Package memstore keeps every repository in process memory. It backs the
// test suites and `serve --memory`.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type Store struct {
	mu   sync.RWMutex
	now  func() time.Time
	data tables
}

// txKey marks a context as running inside WithTx of the stored *Store.
type txKey struct{}

type tables struct {
	users        map[string]model.User
	tokens       map[string]service.RefreshToken
	availability map[string]model.Availability
	appointments map[string]model.Appointment
}

var _ service.Repositories = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now, data: newTables()}
}

func newTables() tables {
	return tables{
		users:        map[string]model.User{},
		tokens:       map[string]service.RefreshToken{},
		availability: map[string]model.Availability{},
		appointments: map[string]model.Appointment{},
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.tokens {
		c.tokens[k] = v
	}
	for k, v := range t.availability {
		c.availability[k] = v
	}
	for k, v := range t.appointments {
		c.appointments[k] = v
	}
	return c
}

func (s *Store) Ping(context.Context) error { return nil }

// WithTx holds the write lock for the whole of fn, so other callers wait
// instead of interleaving, and restores a snapshot when fn fails. Calls made
// with the ctx handed to fn reuse the held lock; fn must not use a context
// from outside the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snap
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) lock(ctx context.Context) (unlock func()) {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) (unlock func()) {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer s.lock(ctx)()
	for _, existing := range s.data.users {
		if existing.Email == u.Email {
			return service.ErrDuplicate
		}
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.data.users[u.ID] = *u
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	defer s.rlock(ctx)()
	u, ok := s.data.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer s.rlock(ctx)()
	u, ok := lo.Find(lo.Values(s.data.users), func(u model.User) bool { return u.Email == email })
	if !ok {
		return nil, service.ErrNotFound
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, role model.Role) ([]model.User, error) {
	defer s.rlock(ctx)()
	out := lo.Filter(lo.Values(s.data.users), func(u model.User, _ int) bool {
		return role == "" || u.Role == role
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	defer s.lock(ctx)()
	if _, ok := s.data.users[u.ID]; !ok {
		return service.ErrNotFound
	}
	u.UpdatedAt = s.now().UTC()
	s.data.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	if _, ok := s.data.users[id]; !ok {
		return service.ErrNotFound
	}
	for k, a := range s.data.appointments {
		if a.UserID == id || a.DoctorID == id {
			delete(s.data.appointments, k)
		}
	}
	for k, a := range s.data.availability {
		if a.DoctorID == id {
			delete(s.data.availability, k)
		}
	}
	for k, t := range s.data.tokens {
		if t.UserID == id {
			delete(s.data.tokens, k)
		}
	}
	delete(s.data.users, id)
	return nil
}

// ---- refresh tokens ----

func (s *Store) CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	defer s.lock(ctx)()
	id := uuid.New().String()
	s.data.tokens[id] = service.RefreshToken{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: s.now().UTC(),
	}
	return id, nil
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*service.RefreshToken, error) {
	defer s.rlock(ctx)()
	for _, t := range s.data.tokens {
		if t.TokenHash == tokenHash {
			return &t, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *Store) RotateRefreshToken(ctx context.Context, oldID, newID, userID, newHash string, newExpiry time.Time) error {
	defer s.lock(ctx)()
	old, ok := s.data.tokens[oldID]
	if !ok || old.Revoked {
		return service.ErrNotFound
	}
	old.Revoked = true
	old.ReplacedBy = &newID
	s.data.tokens[oldID] = old
	s.data.tokens[newID] = service.RefreshToken{
		ID:        newID,
		UserID:    userID,
		TokenHash: newHash,
		ExpiresAt: newExpiry,
		CreatedAt: s.now().UTC(),
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	defer s.lock(ctx)()
	for k, t := range s.data.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			s.data.tokens[k] = t
		}
	}
	return nil
}

// ---- availability ----

func (s *Store) CreateAvailability(ctx context.Context, a *model.Availability) error {
	defer s.lock(ctx)()
	if _, ok := s.data.users[a.DoctorID]; !ok {
		return service.ErrNotFound
	}
	now := s.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.data.availability[a.ID] = *a
	return nil
}

func (s *Store) GetAvailability(ctx context.Context, id string) (*model.Availability, error) {
	defer s.rlock(ctx)()
	a, ok := s.data.availability[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAvailability(ctx context.Context, doctorID string) ([]model.Availability, error) {
	defer s.rlock(ctx)()
	out := lo.Filter(lo.Values(s.data.availability), func(a model.Availability, _ int) bool {
		return doctorID == "" || a.DoctorID == doctorID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (s *Store) UpdateAvailability(ctx context.Context, a *model.Availability) error {
	defer s.lock(ctx)()
	if _, ok := s.data.availability[a.ID]; !ok {
		return service.ErrNotFound
	}
	a.UpdatedAt = s.now().UTC()
	s.data.availability[a.ID] = *a
	return nil
}

func (s *Store) DeleteAvailability(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	if _, ok := s.data.availability[id]; !ok {
		return service.ErrNotFound
	}
	delete(s.data.availability, id)
	return nil
}

// ---- appointments ----

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	defer s.lock(ctx)()
	if _, ok := s.data.users[a.UserID]; !ok {
		return service.ErrNotFound
	}
	if _, ok := s.data.users[a.DoctorID]; !ok {
		return service.ErrNotFound
	}
	now := s.now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	s.data.appointments[a.ID] = *a
	return nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	defer s.rlock(ctx)()
	a, ok := s.data.appointments[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	return &a, nil
}

func (s *Store) ListAppointments(ctx context.Context, f service.AppointmentFilter) ([]model.Appointment, error) {
	defer s.rlock(ctx)()
	out := lo.Filter(lo.Values(s.data.appointments), func(a model.Appointment, _ int) bool {
		return (f.UserID == "" || a.UserID == f.UserID) && (f.DoctorID == "" || a.DoctorID == f.DoctorID)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, status model.Status) error {
	defer s.lock(ctx)()
	a, ok := s.data.appointments[id]
	if !ok {
		return service.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = s.now().UTC()
	s.data.appointments[id] = a
	return nil
}
