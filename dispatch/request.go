package dispatch

// Request is a decoded inbound call.
type Request struct {
	// SetID is the set ID that the operation applies to. It must not be empty.
	SetID string

	// Operation is the operation to perform. It must not be nil.
	Operation Operation
}

// Operation is an operation that can be requested of a [Dispatcher]. It is
// one of [Join] or [GetResult].
type Operation interface {
	isOperation()
}

// Join is an [Operation] that contributes elements to a set's intersection.
type Join struct {
	Elements []string
}

// GetResult is an [Operation] that retrieves a set's intersection, locking it
// against further contributions.
type GetResult struct{}

func (Join) isOperation()      {}
func (GetResult) isOperation() {}

// Response is the result of a successful [Request]. It is one of
// [JoinResponse] or [GetResultResponse].
type Response interface {
	isResponse()
}

// JoinResponse is the [Response] to a [Join] operation.
type JoinResponse struct {
	// Accepted is true if the elements were merged into the intersection.
	Accepted bool

	// Reason is the reason the contribution was rejected, either "locked" or
	// "threshold_reached". It is empty if Accepted is true.
	Reason string
}

// GetResultResponse is the [Response] to a [GetResult] operation.
type GetResultResponse struct {
	// Intersection is the locked intersection in lexical order. It is never
	// nil.
	Intersection []string
}

func (JoinResponse) isResponse()      {}
func (GetResultResponse) isResponse() {}
