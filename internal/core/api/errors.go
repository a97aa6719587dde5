package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/smartplaylist/internal/types"
)

// ErrNotOwner indicates the authenticated user does not own the playlist.
var ErrNotOwner = errors.New("playlist belongs to another user")

// toStatus maps service errors to gRPC status codes.
// Rule errors are the caller's to fix; storage errors are retryable.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, types.ErrConfiguration):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrPlaylistNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
