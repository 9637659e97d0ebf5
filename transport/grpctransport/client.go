package grpctransport

import (
	"context"

	"github.com/dogmatiq/psikit/dispatch"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a client of the SetIntersection service.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient returns a [Client] that sends requests over conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn}
}

// Join contributes elements to the intersection for setID.
//
// Errors returned by the server are converted to [dispatch.NotFoundError] or
// [dispatch.MalformedRequestError] where applicable.
func (c *Client) Join(ctx context.Context, setID string, elements []string) (dispatch.JoinResponse, error) {
	in := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"set_id":   structpb.NewStringValue(setID),
			"elements": stringListValue(elements),
		},
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, joinMethod, in, out); err != nil {
		return dispatch.JoinResponse{}, fromStatus(setID, err)
	}

	reason, err := stringField(out, "reason")
	if err != nil {
		return dispatch.JoinResponse{}, err
	}

	return dispatch.JoinResponse{
		Accepted: out.GetFields()["accepted"].GetBoolValue(),
		Reason:   reason,
	}, nil
}

// GetResult returns the intersection for setID, locking it against further
// contributions.
func (c *Client) GetResult(ctx context.Context, setID string) (dispatch.GetResultResponse, error) {
	in := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"set_id": structpb.NewStringValue(setID),
		},
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, getResultMethod, in, out); err != nil {
		return dispatch.GetResultResponse{}, fromStatus(setID, err)
	}

	intersection, err := stringListField(out, "intersection")
	if err != nil {
		return dispatch.GetResultResponse{}, err
	}

	return dispatch.GetResultResponse{Intersection: intersection}, nil
}

// fromStatus converts a gRPC status error to the equivalent dispatch error.
func fromStatus(setID string, err error) error {
	s, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch s.Code() {
	case codes.InvalidArgument:
		return dispatch.MalformedRequestError{Reason: s.Message()}
	case codes.NotFound:
		return dispatch.NotFoundError{SetID: setID}
	default:
		return err
	}
}
