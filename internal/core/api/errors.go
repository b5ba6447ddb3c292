package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/promokeeper/internal/types"
)

// toStatus maps service errors to gRPC status.
// Auth errors are mapped in the auth interceptor; parse and evaluation
// errors never reach here because they are reported in the response body.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, types.ErrCouponNotFound):
		code = codes.NotFound
	case errors.Is(err, types.ErrCouponExists):
		code = codes.AlreadyExists
	case errors.Is(err, types.ErrInvalidCouponCode),
		errors.Is(err, types.ErrRuleTooLong),
		errors.Is(err, types.ErrNegativeAmount):
		code = codes.InvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		// Storage failures are retryable
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}

// invalidArgument wraps request decoding failures.
func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}
