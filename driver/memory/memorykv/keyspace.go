package memorykv

import (
	"context"
	"errors"
	"sync"

	"github.com/dogmatiq/psikit/driver/memory/internal/clone"
	"github.com/dogmatiq/psikit/kv"
)

// state is the in-memory state of a keyspace.
type state struct {
	sync.RWMutex
	Pairs map[string]pair
}

// pair is a value and its revision.
type pair struct {
	Value    []byte
	Revision kv.Revision
}

// keyspace is an implementation of [kv.Keyspace] that manipulates a keyspace's
// in-memory [state].
type keyspace struct {
	name  string
	state *state
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, kv.Revision, error) {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	ks.state.RLock()
	p := ks.state.Pairs[string(k)]
	ks.state.RUnlock()

	return clone.Bytes(p.Value), p.Revision, ctx.Err()
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) error {
	if ks.state == nil {
		panic("keyspace is closed")
	}

	if len(v) == 0 {
		panic("value must not be empty")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	v = clone.Bytes(v)

	ks.state.Lock()
	defer ks.state.Unlock()

	p := ks.state.Pairs[string(k)]

	if p.Revision != r {
		return kv.ConflictError{
			Keyspace: ks.name,
			Key:      clone.Bytes(k),
			Revision: r,
		}
	}

	if ks.state.Pairs == nil {
		ks.state.Pairs = map[string]pair{}
	}

	ks.state.Pairs[string(k)] = pair{v, r + 1}

	return nil
}

func (ks *keyspace) Close() error {
	if ks.state == nil {
		return errors.New("keyspace is already closed")
	}

	ks.state = nil

	return nil
}
