// Package errmap translates domain errors into gRPC codes and HTTP statuses
// so both transports report the same outcome for the same failure.
package errmap

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrNoCapacity):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, domain.ErrTransient):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// HTTPStatus uses the gateway's code table, so 404/400/503/500 line up
// with what a gRPC client sees.
func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(Code(err))
}

// GRPCError wraps err in a status. Internal failures get a generic message.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	code := Code(err)
	if code == codes.Internal {
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}
