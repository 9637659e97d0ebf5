package kv

import "context"

// Revision is the version of a key/value pair.
//
// A key that is not present in the keyspace has a revision of zero. Each
// successful call to [Keyspace.Set] increments the key's revision by one.
type Revision uint64

// A Keyspace is an isolated collection of binary key/value pairs that supports
// optimistic concurrency control.
type Keyspace interface {
	// Name returns the name of the keyspace.
	Name() string

	// Get returns the value associated with k, and its current revision.
	//
	// If the key does not exist v is empty and r is zero.
	Get(ctx context.Context, k []byte) (v []byte, r Revision, err error)

	// Set associates a value with k.
	//
	// r must be the current revision of the key, as returned by Get, or zero if
	// the key is expected not to exist. If r is incorrect a [ConflictError] is
	// returned and the keyspace is unchanged.
	//
	// v must not be empty.
	Set(ctx context.Context, k, v []byte, r Revision) error

	// Close closes the keyspace.
	Close() error
}
