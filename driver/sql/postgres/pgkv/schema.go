package pgkv

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/psikit/driver/sql/postgres/internal/commonschema"
)

// CreateSchema creates the PostgreSQL schema elements required by [Store].
func CreateSchema(
	ctx context.Context,
	db *sql.DB,
) error {
	return commonschema.Create(
		ctx,
		db,
		`CREATE TABLE IF NOT EXISTS psikit.kv (
			keyspace TEXT NOT NULL,
			key      BYTEA NOT NULL,
			value    BYTEA NOT NULL,
			revision BIGINT NOT NULL,

			PRIMARY KEY (keyspace, key)
		)`,
	)
}
