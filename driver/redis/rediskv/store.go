package rediskv

import (
	"context"
	"strconv"

	"github.com/dogmatiq/psikit/kv"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is the prefix applied to every Redis key written by a store
// that is not configured with [WithKeyPrefix].
const DefaultKeyPrefix = "psikit:kv:"

// store is an implementation of [kv.Store] that persists to Redis.
type store struct {
	Client    redis.UniversalClient
	KeyPrefix string
}

// NewStore returns a new [kv.Store] that uses the given Redis client to store
// key/value pairs.
//
// Each pair is stored as a hash containing the value and its revision.
func NewStore(client redis.UniversalClient, options ...Option) kv.Store {
	s := &store{
		Client:    client,
		KeyPrefix: DefaultKeyPrefix,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Option is a functional option that changes the behavior of [NewStore].
type Option func(*store)

// WithKeyPrefix is an [Option] that sets the prefix applied to every Redis key.
func WithKeyPrefix(p string) Option {
	return func(s *store) {
		s.KeyPrefix = p
	}
}

// Open returns the keyspace with the given name.
func (s *store) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &keyspace{
		name:   name,
		prefix: s.KeyPrefix + strconv.Itoa(len(name)) + ":" + name + ":",
		client: s.Client,
	}, nil
}
