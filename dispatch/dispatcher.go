package dispatch

import (
	"context"
	"fmt"

	"github.com/dogmatiq/psikit/aggregate"
)

// Dispatcher translates requests into operations on an [aggregate.Store].
//
// It holds no intersection state of its own. It is safe for concurrent use.
type Dispatcher struct {
	// Store is the store that holds each set's intersection.
	Store aggregate.Store

	// Limits bounds the size of accepted requests.
	Limits Limits
}

// Dispatch performs the operation described by req.
//
// The returned [Response] is a [JoinResponse] or [GetResultResponse] depending
// on the requested operation.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	switch op := req.Operation.(type) {
	case Join:
		return d.Join(ctx, req.SetID, op.Elements)
	case GetResult:
		return d.GetResult(ctx, req.SetID)
	case nil:
		return nil, malformed("operation must not be empty")
	default:
		panic(fmt.Sprintf("unsupported operation: %T", op))
	}
}

// Join contributes elements to the intersection for setID.
//
// A rejected contribution is reported by the response, not as an error.
func (d *Dispatcher) Join(ctx context.Context, setID string, elements []string) (JoinResponse, error) {
	if err := d.Limits.checkSetID(setID); err != nil {
		return JoinResponse{}, err
	}

	if err := d.Limits.checkElements(elements); err != nil {
		return JoinResponse{}, err
	}

	c, err := d.Store.Contribute(ctx, setID, elements)
	if err != nil {
		return JoinResponse{}, err
	}

	if c.Accepted {
		return JoinResponse{Accepted: true}, nil
	}

	return JoinResponse{Reason: c.Reason.String()}, nil
}

// GetResult returns the intersection for setID, locking it against further
// contributions.
//
// It returns a [NotFoundError] if there have been no contributions for setID.
func (d *Dispatcher) GetResult(ctx context.Context, setID string) (GetResultResponse, error) {
	if err := d.Limits.checkSetID(setID); err != nil {
		return GetResultResponse{}, err
	}

	r, err := d.Store.Retrieve(ctx, setID)
	if err != nil {
		return GetResultResponse{}, err
	}

	if !r.Found {
		return GetResultResponse{}, NotFoundError{setID}
	}

	return GetResultResponse{Intersection: r.Intersection}, nil
}
