package pgkv

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/psikit/kv"
)

// Store is an implementation of [kv.Store] that stores keyspaces in a
// PostgreSQL database.
//
// The schema must be created with [CreateSchema] before the store is used.
type Store struct {
	DB *sql.DB
}

// Open returns the keyspace with the given name.
func (s *Store) Open(ctx context.Context, name string) (kv.Keyspace, error) {
	return &keyspace{
		db:   s.DB,
		name: name,
	}, ctx.Err()
}
