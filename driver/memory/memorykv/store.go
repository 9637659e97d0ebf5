package memorykv

import (
	"context"
	"sync"

	"github.com/dogmatiq/psikit/kv"
)

// Store is an in-memory implementation of [kv.Store].
//
// The zero value is ready to use.
type Store struct {
	keyspaces sync.Map // map[string]*state
}

// Open returns the keyspace with the given name.
func (s *Store) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	st, ok := s.keyspaces.Load(name)

	if !ok {
		st, _ = s.keyspaces.LoadOrStore(
			name,
			&state{},
		)
	}

	return &keyspace{
		name:  name,
		state: st.(*state),
	}, ctx.Err()
}
