package aggregate

import "context"

// Store is a collection of independent intersection computations, keyed by
// set ID.
//
// Operations on the same set ID are linearizable. Operations on different set
// IDs do not block one another.
type Store interface {
	// Contribute merges elements into the intersection for the given set ID.
	//
	// A record is created for the set ID if it does not already exist. The
	// contribution is rejected if the record is locked or has reached the
	// threshold.
	Contribute(ctx context.Context, setID string, elements []string) (Contribution, error)

	// Retrieve returns the intersection for the given set ID and locks it.
	//
	// If there have been no contributions for the set ID, Found is false and
	// no record is created.
	Retrieve(ctx context.Context, setID string) (Retrieval, error)
}
