// Package aggregate defines the set-intersection accumulator.
//
// Clients contribute sets of elements under a caller-supplied set ID. Each set
// ID has an independent [Record] that holds the running intersection of every
// accepted contribution. At most a fixed number of contributions (the
// threshold) are accepted per set ID.
//
// The first retrieval of a set ID's intersection locks it. After that the
// intersection never changes, further contributions are rejected, and every
// retrieval returns the same snapshot.
//
// Isolation between set IDs is provided entirely by the per-key state of the
// [Store] implementation. No identity or label information is consulted.
package aggregate
