package aggregate

// Reason is the reason a contribution was rejected.
type Reason int

const (
	// ReasonNone indicates that the contribution was not rejected.
	ReasonNone Reason = iota

	// ReasonLocked indicates that the contribution arrived after the
	// intersection was locked by a retrieval.
	ReasonLocked

	// ReasonThresholdReached indicates that the contribution arrived after the
	// maximum number of contributions had been accepted.
	ReasonThresholdReached
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonLocked:
		return "locked"
	case ReasonThresholdReached:
		return "threshold_reached"
	default:
		return "unknown"
	}
}

// Contribution is the outcome of [Store.Contribute].
//
// A rejected contribution is an expected outcome, not an error. It leaves the
// record unchanged.
type Contribution struct {
	// Accepted is true if the elements were merged into the intersection.
	Accepted bool

	// Count is the number of accepted contributions for the set ID after this
	// operation.
	Count uint

	// Reason is the reason the contribution was rejected. It is [ReasonNone]
	// if Accepted is true.
	Reason Reason
}

// Retrieval is the outcome of [Store.Retrieve].
type Retrieval struct {
	// Found is false if there have been no contributions for the set ID.
	Found bool

	// Intersection is the locked intersection, in lexical order. It is empty,
	// not nil, when Found is true and the intersection is empty.
	Intersection []string

	// Froze is true if this retrieval locked the intersection. Exactly one
	// retrieval per set ID has Froze set.
	Froze bool
}
