package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"clinic-scheduler/internal/auth"
	"clinic-scheduler/internal/handler"
	"clinic-scheduler/internal/memstore"
	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type server struct {
	t *testing.T
	e *echo.Echo
}

func setup(t *testing.T) *server {
	return setupWithLimiter(t, middleware.NewRateLimiter(1000, 1000))
}

func setupWithLimiter(t *testing.T, rl *middleware.RateLimiter) *server {
	t.Helper()
	repo := memstore.New()
	log := zerolog.Nop()
	iss := auth.NewIssuer("handler-test-secret", 0, 0)
	h := handler.New(handler.Deps{
		Identity: service.NewIdentity(repo, iss, log),
		Users:    service.NewUsers(repo, log),
		Ledger:   service.NewLedger(repo, log),
		Bookings: service.NewBookings(repo, log),
		Gate:     service.NewGate(repo),
		Issuer:   iss,
		Limiter:  rl,
		Metrics:  middleware.NewMetrics(),
		Store:    repo,
	})
	return &server{t: t, e: handler.NewServer(h, log, []string{"http://localhost:3000"})}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func expect(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

func (s *server) signup(role model.Role, email string) session {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/signup", "", map[string]any{
		"role": role, "first_name": "First", "last_name": "Last",
		"email": email, "password": "secret1",
	})
	expect(s.t, rec, http.StatusOK)
	var out session
	decode(s.t, rec, &out)
	return out
}

type userBody struct {
	Msg  string     `json:"msg"`
	User model.User `json:"user"`
}

type doctorsBody struct {
	Doctors []model.User `json:"doctors"`
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	if body.Error == "" {
		t.Fatalf("expected an error field, got %s", rec.Body.String())
	}
	return body.Error
}

func TestSignupThenDuplicate(t *testing.T) {
	s := setup(t)
	body := map[string]any{
		"role": "client", "first_name": "A", "last_name": "B",
		"email": "a@b.com", "password": "secret1",
	}

	rec := s.do(http.MethodPost, "/auth/signup", "", body)
	expect(t, rec, http.StatusOK)
	var sess session
	decode(t, rec, &sess)
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if sess.User.Email != "a@b.com" || sess.User.Role != model.RoleClient {
		t.Fatalf("unexpected user %+v", sess.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("password hash leaked into response")
	}

	rec = s.do(http.MethodPost, "/auth/signup", "", body)
	expect(t, rec, http.StatusConflict)
	errorMessage(t, rec)
}

func TestSignupValidation(t *testing.T) {
	s := setup(t)
	long := strings.Repeat("x", 51)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing email", map[string]any{"role": "client", "first_name": "A", "last_name": "B", "password": "secret1"}},
		{"bad email", map[string]any{"role": "client", "first_name": "A", "last_name": "B", "email": "nope", "password": "secret1"}},
		{"short password", map[string]any{"role": "client", "first_name": "A", "last_name": "B", "email": "a@b.com", "password": "12345"}},
		{"unknown role", map[string]any{"role": "nurse", "first_name": "A", "last_name": "B", "email": "a@b.com", "password": "secret1"}},
		{"long first name", map[string]any{"role": "client", "first_name": long, "last_name": "B", "email": "a@b.com", "password": "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/auth/signup", "", tt.body)
			expect(t, rec, http.StatusBadRequest)
			errorMessage(t, rec)
		})
	}
}

func TestLogin(t *testing.T) {
	s := setup(t)
	admin := s.signup(model.RoleAdmin, "admin@x.com")
	client := s.signup(model.RoleClient, "c@x.com")

	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "c@x.com", "password": "wrong-pass"})
	expect(t, rec, http.StatusUnauthorized)
	if msg := errorMessage(t, rec); msg != "invalid email or password" {
		t.Fatalf("unexpected message %q", msg)
	}

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "missing@x.com", "password": "secret1"})
	expect(t, rec, http.StatusUnauthorized)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "C@X.com", "password": "secret1"})
	expect(t, rec, http.StatusOK)

	rec = s.do(http.MethodPut, "/admin/users/block/"+client.User.ID, admin.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var blocked userBody
	decode(t, rec, &blocked)
	if !blocked.User.Blocked || !strings.Contains(blocked.Msg, "blocked") {
		t.Fatal("expected blocked=true after toggle")
	}

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "c@x.com", "password": "secret1"})
	expect(t, rec, http.StatusForbidden)
}

func TestBlockedUserIsForbiddenEverywhere(t *testing.T) {
	s := setup(t)
	admin := s.signup(model.RoleAdmin, "admin@x.com")
	client := s.signup(model.RoleClient, "c@x.com")

	expect(t, s.do(http.MethodPut, "/admin/users/block/"+client.User.ID, admin.AccessToken, nil), http.StatusOK)

	for _, path := range []string{"/auth/user/me", "/appointments/", "/availability/", "/users/doctors"} {
		expect(t, s.do(http.MethodGet, path, client.AccessToken, nil), http.StatusForbidden)
	}

	// toggling again restores access
	expect(t, s.do(http.MethodPut, "/admin/users/block/"+client.User.ID, admin.AccessToken, nil), http.StatusOK)
	expect(t, s.do(http.MethodGet, "/auth/user/me", client.AccessToken, nil), http.StatusOK)
}

func TestAuthErrors(t *testing.T) {
	s := setup(t)
	client := s.signup(model.RoleClient, "c@x.com")

	rec := s.do(http.MethodGet, "/auth/user/me", "", nil)
	expect(t, rec, http.StatusUnauthorized)
	errorMessage(t, rec)

	expect(t, s.do(http.MethodGet, "/auth/user/me", "garbage", nil), http.StatusUnauthorized)
	// a refresh token is not an access token
	expect(t, s.do(http.MethodGet, "/auth/user/me", client.RefreshToken, nil), http.StatusUnauthorized)

	rec = s.do(http.MethodGet, "/auth/user/me", client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var me userBody
	decode(t, rec, &me)
	if me.User.ID != client.User.ID {
		t.Fatalf("me returned %s", me.User.ID)
	}

	// deleted account with a still-valid token
	expect(t, s.do(http.MethodDelete, "/users/"+client.User.ID, client.AccessToken, nil), http.StatusOK)
	expect(t, s.do(http.MethodGet, "/auth/user/me", client.AccessToken, nil), http.StatusNotFound)
}

func TestRefreshAndLogout(t *testing.T) {
	s := setup(t)
	client := s.signup(model.RoleClient, "c@x.com")

	rec := s.do(http.MethodGet, "/auth/refresh", client.RefreshToken, nil)
	expect(t, rec, http.StatusOK)
	var next session
	decode(t, rec, &next)
	if next.AccessToken == "" || next.RefreshToken == "" || next.RefreshToken == client.RefreshToken {
		t.Fatalf("expected rotated tokens, got %+v", next)
	}
	expect(t, s.do(http.MethodGet, "/auth/user/me", next.AccessToken, nil), http.StatusOK)

	// replaying the rotated token revokes the family
	expect(t, s.do(http.MethodGet, "/auth/refresh", client.RefreshToken, nil), http.StatusUnauthorized)
	expect(t, s.do(http.MethodGet, "/auth/refresh", next.RefreshToken, nil), http.StatusUnauthorized)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "c@x.com", "password": "secret1"})
	expect(t, rec, http.StatusOK)
	var fresh session
	decode(t, rec, &fresh)

	expect(t, s.do(http.MethodPost, "/auth/logout", fresh.AccessToken, nil), http.StatusOK)
	expect(t, s.do(http.MethodGet, "/auth/refresh", fresh.RefreshToken, nil), http.StatusUnauthorized)
	expect(t, s.do(http.MethodGet, "/auth/refresh", "", nil), http.StatusUnauthorized)
}

func TestUsersEndpoints(t *testing.T) {
	s := setup(t)
	admin := s.signup(model.RoleAdmin, "admin@x.com")
	client := s.signup(model.RoleClient, "c@x.com")
	other := s.signup(model.RoleClient, "o@x.com")
	doctor := s.signup(model.RoleDoctor, "d@x.com")

	expect(t, s.do(http.MethodGet, "/users/", client.AccessToken, nil), http.StatusForbidden)

	rec := s.do(http.MethodGet, "/users/", admin.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var clients struct {
		Users []model.User `json:"users"`
	}
	decode(t, rec, &clients)
	if len(clients.Users) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients.Users))
	}

	rec = s.do(http.MethodGet, "/admin/users/", admin.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var all []model.User
	decode(t, rec, &all)
	if len(all) != 4 {
		t.Fatalf("expected 4 users, got %d", len(all))
	}

	expect(t, s.do(http.MethodGet, "/users/doctors", doctor.AccessToken, nil), http.StatusForbidden)
	rec = s.do(http.MethodGet, "/users/doctors?first_name=Fir", client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var doctors doctorsBody
	decode(t, rec, &doctors)
	if len(doctors.Doctors) != 1 || doctors.Doctors[0].ID != doctor.User.ID {
		t.Fatalf("unexpected doctors %+v", doctors)
	}
	rec = s.do(http.MethodGet, "/users/doctors?first_name=zzz&last_name=qqq", client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var none doctorsBody
	decode(t, rec, &none)
	if none.Doctors == nil || len(none.Doctors) != 0 {
		t.Fatalf("expected an empty doctors list, got %s", rec.Body.String())
	}

	expect(t, s.do(http.MethodGet, "/users/not-a-uuid", client.AccessToken, nil), http.StatusBadRequest)
	rec = s.do(http.MethodGet, "/users/"+other.User.ID, client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var got userBody
	decode(t, rec, &got)
	if got.User.ID != other.User.ID {
		t.Fatalf("expected user %s under \"user\", got %s", other.User.ID, rec.Body.String())
	}

	rec = s.do(http.MethodPut, "/users/"+client.User.ID, client.AccessToken, map[string]any{"first_name": "New", "status": "not"})
	expect(t, rec, http.StatusOK)
	var updated userBody
	decode(t, rec, &updated)
	if updated.User.FirstName != "New" || updated.User.Status != "not" || updated.Msg == "" {
		t.Fatalf("update not applied: %+v", updated)
	}

	expect(t, s.do(http.MethodPut, "/users/"+other.User.ID, client.AccessToken, map[string]any{"first_name": "X"}), http.StatusForbidden)
	expect(t, s.do(http.MethodPut, "/users/"+client.User.ID, client.AccessToken, map[string]any{"role": "admin"}), http.StatusForbidden)
	expect(t, s.do(http.MethodPut, "/users/"+client.User.ID, client.AccessToken, map[string]any{"status": "busy"}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPut, "/users/"+client.User.ID, admin.AccessToken, map[string]any{"role": "doctor"}), http.StatusOK)

	expect(t, s.do(http.MethodDelete, "/users/"+other.User.ID, client.AccessToken, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodDelete, "/users/"+other.User.ID, admin.AccessToken, nil), http.StatusOK)
	expect(t, s.do(http.MethodGet, "/users/"+other.User.ID, admin.AccessToken, nil), http.StatusNotFound)
}

type availabilityBody struct {
	Msg          string             `json:"msg"`
	Availability model.Availability `json:"availability"`
}

func TestAvailabilityFlow(t *testing.T) {
	s := setup(t)
	admin := s.signup(model.RoleAdmin, "admin@x.com")
	d1 := s.signup(model.RoleDoctor, "d1@x.com")
	d2 := s.signup(model.RoleDoctor, "d2@x.com")
	client := s.signup(model.RoleClient, "c@x.com")

	rec := s.do(http.MethodPost, "/availability/", d1.AccessToken, map[string]string{
		"doctor_id": d1.User.ID, "date_time": "2025-01-01T10:00:00",
	})
	expect(t, rec, http.StatusCreated)
	var created availabilityBody
	decode(t, rec, &created)
	if created.Availability.DoctorID != d1.User.ID || created.Availability.DateTime.Hour() != 10 {
		t.Fatalf("unexpected availability %+v", created.Availability)
	}
	id := created.Availability.ID

	expect(t, s.do(http.MethodPost, "/availability/", d2.AccessToken, map[string]string{
		"doctor_id": d1.User.ID, "date_time": "2025-01-01T10:00:00",
	}), http.StatusForbidden)
	expect(t, s.do(http.MethodPost, "/availability/", client.AccessToken, map[string]string{
		"doctor_id": d1.User.ID, "date_time": "2025-01-01T10:00:00",
	}), http.StatusForbidden)
	expect(t, s.do(http.MethodPost, "/availability/", d1.AccessToken, map[string]string{
		"doctor_id": d1.User.ID, "date_time": "tomorrow",
	}), http.StatusBadRequest)

	lists := []struct {
		who  session
		want int
	}{{d1, 1}, {d2, 0}, {client, 1}, {admin, 1}}
	for _, l := range lists {
		rec := s.do(http.MethodGet, "/availability/", l.who.AccessToken, nil)
		expect(t, rec, http.StatusOK)
		var got []model.Availability
		decode(t, rec, &got)
		if len(got) != l.want {
			t.Errorf("%s sees %d slots, want %d", l.who.User.Email, len(got), l.want)
		}
	}

	expect(t, s.do(http.MethodGet, "/availability/"+id, d2.AccessToken, nil), http.StatusForbidden)
	rec = s.do(http.MethodGet, "/availability/"+id, client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var fetched availabilityBody
	decode(t, rec, &fetched)
	if fetched.Availability.ID != id {
		t.Fatalf("expected slot under \"availability\", got %s", rec.Body.String())
	}

	rec = s.do(http.MethodPut, "/availability/"+id, d1.AccessToken, map[string]any{})
	expect(t, rec, http.StatusOK)
	var same availabilityBody
	decode(t, rec, &same)
	if !same.Availability.DateTime.Equal(created.Availability.DateTime) {
		t.Fatal("empty update changed date_time")
	}

	rec = s.do(http.MethodPut, "/availability/"+id, d1.AccessToken, map[string]string{"date_time": "2025-01-02T09:30:00Z"})
	expect(t, rec, http.StatusOK)
	expect(t, s.do(http.MethodPut, "/availability/"+id, d2.AccessToken, map[string]string{"date_time": "2025-01-02T09:30:00Z"}), http.StatusForbidden)

	expect(t, s.do(http.MethodDelete, "/availability/"+id, d2.AccessToken, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodDelete, "/availability/"+id, client.AccessToken, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodDelete, "/availability/"+id, admin.AccessToken, nil), http.StatusOK)
	expect(t, s.do(http.MethodGet, "/availability/"+id, d1.AccessToken, nil), http.StatusNotFound)
}

type appointmentBody struct {
	Msg         string            `json:"msg"`
	Appointment model.Appointment `json:"appointment"`
}

func book(t *testing.T, s *server, client, doctor session) model.Appointment {
	t.Helper()
	rec := s.do(http.MethodPost, "/appointments/", client.AccessToken, map[string]string{
		"user_id": client.User.ID, "doctor_id": doctor.User.ID, "date_time": "2025-01-01T10:00:00",
	})
	expect(t, rec, http.StatusCreated)
	var out appointmentBody
	decode(t, rec, &out)
	return out.Appointment
}

func TestAppointmentBookingAndCancel(t *testing.T) {
	s := setup(t)
	doctor := s.signup(model.RoleDoctor, "d@x.com")
	client := s.signup(model.RoleClient, "c@x.com")
	other := s.signup(model.RoleClient, "o@x.com")

	appt := book(t, s, client, doctor)
	if appt.Status != model.StatusUpcoming {
		t.Fatalf("expected up-coming, got %s", appt.Status)
	}

	expect(t, s.do(http.MethodPost, "/appointments/", other.AccessToken, map[string]string{
		"user_id": client.User.ID, "doctor_id": doctor.User.ID, "date_time": "2025-01-01T10:00:00",
	}), http.StatusForbidden)
	expect(t, s.do(http.MethodPost, "/appointments/", client.AccessToken, map[string]string{
		"user_id": client.User.ID, "doctor_id": other.User.ID, "date_time": "2025-01-01T10:00:00",
	}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPost, "/appointments/", doctor.AccessToken, map[string]string{
		"user_id": client.User.ID, "doctor_id": doctor.User.ID, "date_time": "2025-01-01T10:00:00",
	}), http.StatusForbidden)

	expect(t, s.do(http.MethodGet, "/appointments/"+appt.ID, other.AccessToken, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodPut, "/appointments/cancel/"+appt.ID, other.AccessToken, nil), http.StatusForbidden)

	for _, who := range []session{doctor, client} {
		rec := s.do(http.MethodPut, "/appointments/cancel/"+appt.ID, who.AccessToken, nil)
		expect(t, rec, http.StatusOK)
		var out appointmentBody
		decode(t, rec, &out)
		if out.Appointment.Status != model.StatusCanceled {
			t.Fatalf("expected canceled, got %s", out.Appointment.Status)
		}
	}

	rec := s.do(http.MethodGet, "/appointments/"+appt.ID, client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var seen appointmentBody
	decode(t, rec, &seen)
	if seen.Appointment.Status != model.StatusCanceled {
		t.Fatalf("expected canceled, got %s", seen.Appointment.Status)
	}

	expect(t, s.do(http.MethodGet, "/appointments/"+appt.ID+"x", client.AccessToken, nil), http.StatusBadRequest)
}

func TestAppointmentListsAreScoped(t *testing.T) {
	s := setup(t)
	admin := s.signup(model.RoleAdmin, "admin@x.com")
	d1 := s.signup(model.RoleDoctor, "d1@x.com")
	d2 := s.signup(model.RoleDoctor, "d2@x.com")
	c1 := s.signup(model.RoleClient, "c1@x.com")
	c2 := s.signup(model.RoleClient, "c2@x.com")

	book(t, s, c1, d1)
	book(t, s, c2, d2)
	book(t, s, c1, d2)

	for _, tt := range []struct {
		who  session
		want int
	}{{admin, 3}, {d1, 1}, {d2, 2}, {c1, 2}, {c2, 1}} {
		rec := s.do(http.MethodGet, "/appointments", tt.who.AccessToken, nil)
		expect(t, rec, http.StatusOK)
		var got []model.Appointment
		decode(t, rec, &got)
		if len(got) != tt.want {
			t.Errorf("%s sees %d appointments, want %d", tt.who.User.Email, len(got), tt.want)
		}
	}
}

func TestAppointmentStatusTransitions(t *testing.T) {
	s := setup(t)
	doctor := s.signup(model.RoleDoctor, "d@x.com")
	client := s.signup(model.RoleClient, "c@x.com")
	appt := book(t, s, client, doctor)
	path := "/appointments/status/" + appt.ID

	expect(t, s.do(http.MethodPut, path, client.AccessToken, map[string]string{"status": "on-going"}), http.StatusForbidden)
	expect(t, s.do(http.MethodPut, path, doctor.AccessToken, map[string]string{"status": "pending"}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPut, path, doctor.AccessToken, map[string]string{"status": "completed"}), http.StatusConflict)

	for _, st := range []model.Status{model.StatusOngoing, model.StatusCompleted} {
		rec := s.do(http.MethodPut, path, doctor.AccessToken, map[string]string{"status": string(st)})
		expect(t, rec, http.StatusOK)
		var out appointmentBody
		decode(t, rec, &out)
		if out.Appointment.Status != st {
			t.Fatalf("expected %s, got %s", st, out.Appointment.Status)
		}
	}

	expect(t, s.do(http.MethodPut, "/appointments/cancel/"+appt.ID, client.AccessToken, nil), http.StatusConflict)
}

func TestDeleteUserCascades(t *testing.T) {
	s := setup(t)
	admin := s.signup(model.RoleAdmin, "admin@x.com")
	doctor := s.signup(model.RoleDoctor, "d@x.com")
	client := s.signup(model.RoleClient, "c@x.com")

	rec := s.do(http.MethodPost, "/availability", doctor.AccessToken, map[string]string{
		"doctor_id": doctor.User.ID, "date_time": "2025-01-01T10:00:00",
	})
	expect(t, rec, http.StatusCreated)
	var slot availabilityBody
	decode(t, rec, &slot)
	appt := book(t, s, client, doctor)

	expect(t, s.do(http.MethodDelete, "/users/"+doctor.User.ID, doctor.AccessToken, nil), http.StatusOK)

	expect(t, s.do(http.MethodGet, "/availability/"+slot.Availability.ID, admin.AccessToken, nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, "/appointments/"+appt.ID, admin.AccessToken, nil), http.StatusNotFound)
	rec = s.do(http.MethodGet, "/appointments", client.AccessToken, nil)
	expect(t, rec, http.StatusOK)
	var left []model.Appointment
	decode(t, rec, &left)
	if len(left) != 0 {
		t.Fatalf("expected no appointments left, got %d", len(left))
	}
}

func TestRateLimitedLogin(t *testing.T) {
	s := setupWithLimiter(t, middleware.NewRateLimiter(0.001, 2))
	body := map[string]string{"email": "x@x.com", "password": "secret1"}

	expect(t, s.do(http.MethodPost, "/auth/login", "", body), http.StatusUnauthorized)
	expect(t, s.do(http.MethodPost, "/auth/login", "", body), http.StatusUnauthorized)
	rec := s.do(http.MethodPost, "/auth/login", "", body)
	expect(t, rec, http.StatusTooManyRequests)
	errorMessage(t, rec)
}

func TestHealthMetricsAndUnknownRoute(t *testing.T) {
	s := setup(t)

	rec := s.do(http.MethodGet, "/health", "", nil)
	expect(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Fatalf("unexpected health body %s", rec.Body.String())
	}

	s.signup(model.RoleClient, "c@x.com")
	rec = s.do(http.MethodGet, "/metrics", "", nil)
	expect(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `auth_attempts_total{method="signup",status="success"} 1`) {
		t.Fatalf("signup not counted:\n%s", rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/nowhere", "", nil)
	expect(t, rec, http.StatusNotFound)
	errorMessage(t, rec)
}

func TestCORSPreflight(t *testing.T) {
	s := setup(t)
	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow-origin %q (status %d)", got, rec.Code)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
}
