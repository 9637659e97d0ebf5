package grpctransport

import (
	"context"
	"errors"

	"github.com/dogmatiq/psikit/dispatch"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server is a [SetIntersectionServer] that forwards requests to a
// [dispatch.Dispatcher].
type Server struct {
	Dispatcher *dispatch.Dispatcher
}

var _ SetIntersectionServer = (*Server)(nil)

// Join contributes elements to a set's intersection.
func (s *Server) Join(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	setID, err := stringField(in, "set_id")
	if err != nil {
		return nil, toStatus(err)
	}

	elements, err := stringListField(in, "elements")
	if err != nil {
		return nil, toStatus(err)
	}

	res, err := s.Dispatcher.Join(ctx, setID, elements)
	if err != nil {
		return nil, toStatus(err)
	}

	out := map[string]*structpb.Value{
		"accepted": structpb.NewBoolValue(res.Accepted),
	}
	if res.Reason != "" {
		out["reason"] = structpb.NewStringValue(res.Reason)
	}

	return &structpb.Struct{Fields: out}, nil
}

// GetResult returns a set's intersection, locking it against further
// contributions.
func (s *Server) GetResult(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	setID, err := stringField(in, "set_id")
	if err != nil {
		return nil, toStatus(err)
	}

	res, err := s.Dispatcher.GetResult(ctx, setID)
	if err != nil {
		return nil, toStatus(err)
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"intersection": stringListValue(res.Intersection),
		},
	}, nil
}

// toStatus converts err to a gRPC status error.
func toStatus(err error) error {
	switch {
	case dispatch.IsMalformed(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case dispatch.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
