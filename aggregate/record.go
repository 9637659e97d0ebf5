package aggregate

import "fmt"

// State is the lifecycle state of a [Record].
type State int

const (
	// StateOpen is the state of a record that accepts contributions.
	StateOpen State = iota

	// StateFull is the state of an unlocked record that has accepted the
	// maximum number of contributions.
	StateFull

	// StateLocked is the state of a record whose intersection has been
	// retrieved. It is terminal.
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateFull:
		return "full"
	case StateLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Record is the aggregation state of a single set ID.
//
// Its methods implement the state transitions without any synchronization.
// Callers are responsible for serializing access to a record.
type Record struct {
	// Contributions is the number of accepted contributions.
	Contributions uint

	// Intersection is the intersection of every accepted contribution. It is
	// meaningless while Contributions is zero.
	Intersection Elements

	// Locked is true once the intersection has been retrieved.
	Locked bool
}

// HasIntersection returns true if at least one contribution has been accepted.
func (r *Record) HasIntersection() bool {
	return r.Contributions > 0
}

// State returns the record's lifecycle state.
func (r *Record) State(threshold uint) State {
	switch {
	case r.Locked:
		return StateLocked
	case r.Contributions >= threshold:
		return StateFull
	default:
		return StateOpen
	}
}

// Contribute merges elements into the intersection, unless the record is
// locked or full.
func (r *Record) Contribute(elements Elements, threshold uint) Contribution {
	switch r.State(threshold) {
	case StateLocked:
		return Contribution{Count: r.Contributions, Reason: ReasonLocked}
	case StateFull:
		return Contribution{Count: r.Contributions, Reason: ReasonThresholdReached}
	}

	if r.HasIntersection() {
		r.Intersection = r.Intersection.Intersect(elements)
	} else {
		r.Intersection = elements.Clone()
	}

	r.Contributions++

	return Contribution{Accepted: true, Count: r.Contributions}
}

// Retrieve locks the record and returns a snapshot of its intersection.
//
// A record without any contributions is treated as absent. It is not locked.
func (r *Record) Retrieve() Retrieval {
	if !r.HasIntersection() {
		return Retrieval{}
	}

	froze := !r.Locked
	r.Locked = true

	return Retrieval{
		Found:        true,
		Intersection: r.Intersection.Sorted(),
		Froze:        froze,
	}
}

// CheckInvariants returns an error if the record is in a state that can not
// be reached by the transitions above.
func (r *Record) CheckInvariants(threshold uint) error {
	if r.Contributions > threshold {
		return fmt.Errorf(
			"record has %d contributions, which exceeds the threshold of %d",
			r.Contributions,
			threshold,
		)
	}

	if r.Contributions == 0 && r.Locked {
		return fmt.Errorf("record is locked without any contributions")
	}

	if r.Contributions == 0 && r.Intersection.Len() != 0 {
		return fmt.Errorf("record has an intersection without any contributions")
	}

	return nil
}
