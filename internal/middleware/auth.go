package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/auth"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

type ctxKey string

const UserIDKey ctxKey = "uid"

// echo context keys
const (
	keyUserID = "user_id"
	keyUser   = "user"
)

func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, UserIDKey, uid)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

// UserID is the authenticated id, empty before Authenticate ran.
func UserID(c echo.Context) string {
	uid, _ := c.Get(keyUserID).(string)
	return uid
}

// CurrentUser is the user admitted by RequireRoles.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(keyUser).(*model.User)
	return u
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func authenticate(iss *auth.Issuer, header string) (string, error) {
	raw := BearerToken(header)
	if raw == "" {
		return "", apperr.Unauthenticated("authorization token is missing")
	}
	claims, err := iss.Parse(raw)
	if err != nil {
		return "", apperr.Unauthenticated("authorization token is invalid or expired")
	}
	return claims.UserID, nil
}

// Authenticate verifies the access token and records the user id on both
// the echo context and the request context.
func Authenticate(iss *auth.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, err := authenticate(iss, c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			c.Set(keyUserID, uid)
			c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), uid)))
			return next(c)
		}
	}
}

// RequireRoles loads the authenticated user and admits it when its role is
// one of roles and it is not blocked.
func RequireRoles(gate *service.Gate, roles ...model.Role) echo.MiddlewareFunc {
	allowed := model.Roles(roles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := gate.Authorize(c.Request().Context(), UserID(c), allowed)
			if err != nil {
				return err
			}
			c.Set(keyUser, u)
			return next(c)
		}
	}
}

// Auth is the gRPC counterpart of Authenticate. Methods listed in open
// skip it.
func Auth(iss *auth.Issuer, open ...string) grpc.UnaryServerInterceptor {
	skip := make(map[string]bool, len(open))
	for _, m := range open {
		skip[m] = true
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if skip[info.FullMethod] {
			return next(ctx, req)
		}
		header := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				header = vals[0]
			}
		}
		uid, err := authenticate(iss, header)
		if err != nil {
			return nil, GRPCError(err)
		}
		return next(WithUserID(ctx, uid), req)
	}
}
