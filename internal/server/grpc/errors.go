package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/server/notify"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Unknown errors are logged
// by the caller and reported as Internal without detail.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorInvalidProbe):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.PermissionDenied, "permission denied")
	case errors.Is(err, common.ErrorNotEnrolled):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrVerifierUnavailable):
		return status.Error(codes.Unavailable, "verifier unavailable")
	case errors.Is(err, notify.ErrSessionClosed):
		return status.Error(codes.ResourceExhausted, "event session dropped, reconnect")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}
