package middleware

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"clinic-scheduler/internal/apperr"
)

// GRPCError converts an error from the apperr taxonomy into a gRPC status.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := codes.Internal
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		code = codes.Unauthenticated
	case apperr.KindForbidden:
		code = codes.PermissionDenied
	case apperr.KindNotFound:
		code = codes.NotFound
	case apperr.KindValidation:
		code = codes.InvalidArgument
	case apperr.KindConflict:
		code = codes.AlreadyExists
	}
	return status.Error(code, apperr.Message(err))
}
