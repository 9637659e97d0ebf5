package kvaggregate

import (
	"context"
	"fmt"

	"github.com/dogmatiq/psikit/aggregate"
	"github.com/dogmatiq/psikit/internal/errorx"
	"github.com/dogmatiq/psikit/kv"
)

// KeyspaceName is the name of the keyspace in which records are stored.
const KeyspaceName = "psi.records"

// Store is an implementation of [aggregate.Store] that persists records in a
// [kv.Keyspace].
//
// It holds no locks. Each operation reads the record, applies the transition
// and writes it back only if no other operation has written it in the
// meantime, retrying on conflict.
type Store struct {
	threshold   uint
	maxAttempts uint
	keyspace    kv.Keyspace
}

var _ aggregate.Store = (*Store)(nil)

// Option is an option that changes the behavior of a [Store].
type Option func(*Store)

// WithMaxAttempts is an [Option] that limits the number of times an operation
// is attempted when it conflicts with concurrent operations on the same set
// ID.
//
// If n is zero, operations are retried until they succeed or their context is
// canceled. This is the default.
func WithMaxAttempts(n uint) Option {
	return func(s *Store) {
		s.maxAttempts = n
	}
}

// NewStore returns a new [Store] that accepts at most threshold contributions
// per set ID, persisting records in the given key/value store.
//
// It panics if threshold is zero.
func NewStore(
	ctx context.Context,
	kvs kv.Store,
	threshold uint,
	options ...Option,
) (*Store, error) {
	if threshold == 0 {
		panic("threshold must be at least 1")
	}

	ks, err := kvs.Open(ctx, KeyspaceName)
	if err != nil {
		return nil, fmt.Errorf("unable to open keyspace: %w", err)
	}

	s := &Store{
		threshold: threshold,
		keyspace:  ks,
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// Contribute merges elements into the intersection for the given set ID.
func (s *Store) Contribute(ctx context.Context, setID string, elements []string) (c aggregate.Contribution, err error) {
	defer errorx.Wrap(&err, "unable to contribute to set %q", setID)

	contribution := aggregate.NewElements(elements...)

	err = s.update(
		ctx,
		setID,
		func(r *aggregate.Record) bool {
			c = r.Contribute(contribution, s.threshold)
			return c.Accepted
		},
	)
	if err != nil {
		return aggregate.Contribution{}, err
	}

	return c, nil
}

// Retrieve returns the intersection for the given set ID and locks it.
func (s *Store) Retrieve(ctx context.Context, setID string) (r aggregate.Retrieval, err error) {
	defer errorx.Wrap(&err, "unable to retrieve set %q", setID)

	err = s.update(
		ctx,
		setID,
		func(rec *aggregate.Record) bool {
			r = rec.Retrieve()
			return r.Froze
		},
	)
	if err != nil {
		return aggregate.Retrieval{}, err
	}

	return r, nil
}

// Close closes the underlying keyspace.
func (s *Store) Close() error {
	return s.keyspace.Close()
}

// update applies fn to the record for the given set ID.
//
// fn returns true if it modified the record. The modified record is written
// only if its revision is unchanged since it was read, otherwise fn is applied
// again to a fresh copy of the record.
func (s *Store) update(
	ctx context.Context,
	setID string,
	fn func(*aggregate.Record) bool,
) error {
	key := []byte(setID)

	for attempt := uint(1); ; attempt++ {
		data, rev, err := s.keyspace.Get(ctx, key)
		if err != nil {
			return err
		}

		var rec aggregate.Record
		if len(data) != 0 {
			rec, err = s.unmarshal(setID, data)
			if err != nil {
				return err
			}
		}

		if !fn(&rec) {
			return nil
		}

		err = s.keyspace.Set(ctx, key, marshalRecord(rec), rev)
		if !kv.IsConflict(err) {
			return err
		}

		if s.maxAttempts != 0 && attempt >= s.maxAttempts {
			return fmt.Errorf("gave up after %d attempt(s): %w", attempt, err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *Store) unmarshal(setID string, data []byte) (aggregate.Record, error) {
	rec, err := unmarshalRecord(data)
	if err == nil {
		err = rec.CheckInvariants(s.threshold)
	}

	if err != nil {
		return aggregate.Record{}, CorruptRecordError{setID, err}
	}

	return rec, nil
}
