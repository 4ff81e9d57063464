// Package rpc exposes the booking operations over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON shapes as the HTTP
// API, so no generated stubs are needed on either side.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/middleware"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

const ServiceName = "booking.v1.BookingService"

// OpenMethods skip the auth interceptor.
var OpenMethods = []string{
	"/" + ServiceName + "/Signup",
	"/" + ServiceName + "/Login",
}

// BookingService is the server-side contract registered with grpc.
type BookingService interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAppointments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelAppointment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateAppointmentStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type Server struct {
	identity *service.Identity
	ledger   *service.Ledger
	bookings *service.Bookings
	gate     *service.Gate
}

func New(identity *service.Identity, ledger *service.Ledger, bookings *service.Bookings, gate *service.Gate) *Server {
	return &Server{identity: identity, ledger: ledger, bookings: bookings, gate: gate}
}

func Register(g *grpc.Server, s BookingService) {
	g.RegisterService(&serviceDesc, s)
}

var everyone = model.Roles(model.RoleAdmin, model.RoleClient, model.RoleDoctor)

// actor resolves the caller the auth interceptor put on ctx.
func (s *Server) actor(ctx context.Context, allowed model.RoleSet) (*model.User, error) {
	u, err := s.gate.Authorize(ctx, middleware.UserIDFromContext(ctx), allowed)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return u, nil
}

func (s *Server) Signup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.identity.Signup(ctx, service.SignupInput{
		Role:        model.Role(str(in, "role")),
		FirstName:   str(in, "first_name"),
		LastName:    str(in, "last_name"),
		Address:     optStr(in, "address"),
		ProfileDesc: optStr(in, "profile_desc"),
		Email:       str(in, "email"),
		Password:    str(in, "password"),
	})
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(sess)
}

func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, err := s.identity.Login(ctx, str(in, "email"), str(in, "password"))
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(sess)
}

func (s *Server) ListAppointments(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, everyone)
	if err != nil {
		return nil, err
	}
	out, err := s.bookings.List(ctx, u)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"appointments": out})
}

func (s *Server) GetAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, everyone)
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "id")
	if err != nil {
		return nil, err
	}
	a, err := s.bookings.Get(ctx, u, id)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"appointment": a})
}

func (s *Server) CreateAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, model.Roles(model.RoleClient))
	if err != nil {
		return nil, err
	}
	userID, err := idField(in, "user_id")
	if err != nil {
		return nil, err
	}
	doctorID, err := idField(in, "doctor_id")
	if err != nil {
		return nil, err
	}
	at, err := dateField(in)
	if err != nil {
		return nil, err
	}
	a, err := s.bookings.Create(ctx, u, service.BookingInput{
		UserID:             userID,
		DoctorID:           doctorID,
		DateTime:           at,
		ClientRequirements: optStr(in, "client_requirements"),
	})
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"msg": "appointment created", "appointment": a})
}

func (s *Server) CancelAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, model.Roles(model.RoleClient, model.RoleDoctor))
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "id")
	if err != nil {
		return nil, err
	}
	a, err := s.bookings.Cancel(ctx, u, id)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"msg": "appointment canceled", "appointment": a})
}

func (s *Server) UpdateAppointmentStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, model.Roles(model.RoleDoctor))
	if err != nil {
		return nil, err
	}
	id, err := idField(in, "id")
	if err != nil {
		return nil, err
	}
	to, err := model.ParseStatus(str(in, "status"))
	if err != nil {
		return nil, middleware.GRPCError(apperr.Validation(err.Error()))
	}
	a, err := s.bookings.Advance(ctx, u, id, to)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"msg": "appointment updated", "appointment": a})
}

func (s *Server) ListAvailability(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, everyone)
	if err != nil {
		return nil, err
	}
	out, err := s.ledger.List(ctx, u)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"availability": out})
}

func (s *Server) CreateAvailability(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.actor(ctx, model.Roles(model.RoleDoctor))
	if err != nil {
		return nil, err
	}
	doctorID, err := idField(in, "doctor_id")
	if err != nil {
		return nil, err
	}
	at, err := dateField(in)
	if err != nil {
		return nil, err
	}
	a, err := s.ledger.Create(ctx, u, doctorID, at)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	return reply(map[string]any{"msg": "availability created", "availability": a})
}

func str(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func optStr(in *structpb.Struct, key string) *string {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

func idField(in *structpb.Struct, key string) (string, error) {
	id, err := uuid.Parse(str(in, key))
	if err != nil {
		return "", middleware.GRPCError(apperr.Validation(fmt.Sprintf("%s must be a valid uuid", key)))
	}
	return id.String(), nil
}

func dateField(in *structpb.Struct) (t time.Time, err error) {
	raw := str(in, "date_time")
	if raw == "" {
		return t, middleware.GRPCError(apperr.Validation("date_time is required"))
	}
	t, err = model.ParseDateTime(raw)
	if err != nil {
		return t, middleware.GRPCError(apperr.Validation("date_time is invalid"))
	}
	return t, nil
}

// reply renders v through its JSON form so field names match the HTTP API.
func reply(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, middleware.GRPCError(err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, middleware.GRPCError(err)
	}
	return out, nil
}
