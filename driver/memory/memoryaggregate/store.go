package memoryaggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dogmatiq/psikit/aggregate"
)

// Store is an in-memory implementation of [aggregate.Store].
type Store struct {
	threshold uint
	ttl       time.Duration
	now       func() time.Time
	records   index
}

var _ aggregate.Store = (*Store)(nil)

// Option is an option that changes the behavior of a [Store].
type Option func(*Store)

// WithExpiry is an [Option] that discards each record ttl after it was
// created. A discarded record behaves as though its set ID was never seen.
//
// A record is never discarded because of activity on other set IDs, so a
// locked record stays locked until its own TTL elapses. A ttl of zero means
// records never expire.
func WithExpiry(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewStore returns a new [Store] that accepts at most threshold contributions
// per set ID.
//
// It panics if threshold is zero.
func NewStore(threshold uint, options ...Option) *Store {
	if threshold == 0 {
		panic("threshold must be at least 1")
	}

	s := &Store{
		threshold: threshold,
		now:       time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.ttl > 0 {
		s.records = newExpiringIndex(s.ttl, s.now)
	} else {
		s.records = &mapIndex{}
	}

	return s
}

// Contribute merges elements into the intersection for the given set ID.
func (s *Store) Contribute(ctx context.Context, setID string, elements []string) (aggregate.Contribution, error) {
	if err := ctx.Err(); err != nil {
		return aggregate.Contribution{}, err
	}

	e := s.records.LoadOrCreate(setID)

	e.Lock()
	defer e.Unlock()

	c := e.Record.Contribute(aggregate.NewElements(elements...), s.threshold)
	s.mustBeValid(setID, e)

	return c, nil
}

// Retrieve returns the intersection for the given set ID and locks it.
func (s *Store) Retrieve(ctx context.Context, setID string) (aggregate.Retrieval, error) {
	if err := ctx.Err(); err != nil {
		return aggregate.Retrieval{}, err
	}

	e, ok := s.records.Load(setID)
	if !ok {
		return aggregate.Retrieval{}, nil
	}

	e.Lock()
	defer e.Unlock()

	r := e.Record.Retrieve()
	s.mustBeValid(setID, e)

	return r, nil
}

// Len returns the number of records held by the store, including records that
// have been created by a contribution that is still in progress.
func (s *Store) Len() int {
	return s.records.Len()
}

func (s *Store) mustBeValid(setID string, e *entry) {
	if err := e.Record.CheckInvariants(s.threshold); err != nil {
		panic(fmt.Sprintf("record for set ID %q is invalid: %s", setID, err))
	}
}

// entry is a record and the mutex that serializes operations on it.
type entry struct {
	sync.Mutex
	Record aggregate.Record

	expiresAt time.Time // zero if the entry never expires
}
