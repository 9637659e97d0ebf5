package rediskv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dogmatiq/psikit/internal/errorx"
	"github.com/dogmatiq/psikit/kv"
	"github.com/redis/go-redis/v9"
)

const (
	valueField    = "v"
	revisionField = "r"
)

// keyspace is an implementation of [kv.Keyspace] that stores each pair as a
// Redis hash.
type keyspace struct {
	name   string
	prefix string
	client redis.UniversalClient
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) (v []byte, r kv.Revision, err error) {
	defer errorx.Wrap(&err, "unable to get key %q from keyspace %q", k, ks.name)

	if ks.client == nil {
		panic("keyspace is closed")
	}

	return get(ctx, ks.client, ks.key(k))
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) (err error) {
	defer errorx.Wrap(&err, "unable to set key %q in keyspace %q", k, ks.name)

	if ks.client == nil {
		panic("keyspace is closed")
	}

	if len(v) == 0 {
		panic("value must not be empty")
	}

	key := ks.key(k)
	conflict := kv.ConflictError{
		Keyspace: ks.name,
		Key:      k,
		Revision: r,
	}

	err = ks.client.Watch(
		ctx,
		func(tx *redis.Tx) error {
			_, current, err := get(ctx, tx, key)
			if err != nil {
				return err
			}

			if current != r {
				return conflict
			}

			_, err = tx.TxPipelined(
				ctx,
				func(p redis.Pipeliner) error {
					p.HSet(
						ctx,
						key,
						valueField, v,
						revisionField, uint64(r+1),
					)
					return nil
				},
			)
			return err
		},
		key,
	)

	if errors.Is(err, redis.TxFailedErr) {
		return conflict
	}

	return err
}

func (ks *keyspace) Close() error {
	if ks.client == nil {
		return fmt.Errorf("keyspace %q is already closed", ks.name)
	}

	ks.client = nil

	return nil
}

func (ks *keyspace) key(k []byte) string {
	return ks.prefix + string(k)
}

// hashReader is the subset of the Redis commands used to read a pair, shared
// by clients and transactions.
type hashReader interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

// get loads the value and revision stored in the hash at key.
func get(ctx context.Context, c hashReader, key string) ([]byte, kv.Revision, error) {
	fields, err := c.HMGet(ctx, key, valueField, revisionField).Result()
	if err != nil {
		return nil, 0, err
	}

	value, ok := fields[0].(string)
	if !ok {
		return nil, 0, nil
	}

	rev, ok := fields[1].(string)
	if !ok {
		return nil, 0, fmt.Errorf("hash %q is corrupt: missing revision", key)
	}

	n, err := strconv.ParseUint(rev, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("hash %q is corrupt: %w", key, err)
	}

	return []byte(value), kv.Revision(n), nil
}
