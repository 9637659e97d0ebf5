package commonschema

import (
	"context"
	"database/sql"

	"github.com/dogmatiq/psikit/driver/sql/postgres/internal/pgerror"
)

// Name is the name of the PostgreSQL schema that contains all psikit tables.
const Name = "psikit"

// Create creates the psikit schema, then executes each of the given DDL
// statements, all within a single transaction.
//
// Statements should use IF NOT EXISTS so that Create is idempotent.
func Create(ctx context.Context, db *sql.DB, ddl ...string) error {
	return pgerror.InTx(
		ctx,
		db,
		func(tx *sql.Tx) error {
			for _, q := range append([]string{`CREATE SCHEMA IF NOT EXISTS ` + Name}, ddl...) {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					return err
				}
			}
			return nil
		},
		// Concurrent IF NOT EXISTS DDL can still race on the catalog's unique
		// indexes.
		pgerror.CodeUniqueViolation,
	)
}
