package pgerror

import (
	"context"
	"database/sql"
	"fmt"
)

// maxAttempts is the number of times [InTx] attempts a transaction before
// giving up.
const maxAttempts = 10

// InTx calls fn within a transaction and commits it.
//
// If the transaction fails with a PostgreSQL error that has one of the given
// codes it is retried from the beginning.
func InTx(
	ctx context.Context,
	db *sql.DB,
	fn func(*sql.Tx) error,
	retryable ...string,
) error {
	for n := 1; ; n++ {
		err := inTx(ctx, db, fn)
		if err == nil {
			return nil
		}

		if n == maxAttempts || !Is(err, retryable...) {
			return fmt.Errorf("transaction failed after %d attempt(s): %w", n, err)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}
