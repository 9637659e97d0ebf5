package pgkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dogmatiq/psikit/driver/sql/postgres/internal/commonschema"
	"github.com/dogmatiq/psikit/driver/sql/postgres/internal/pgerror"
	"github.com/dogmatiq/psikit/internal/errorx"
	"github.com/dogmatiq/psikit/kv"
)

type keyspace struct {
	db   *sql.DB
	name string
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) (v []byte, r kv.Revision, err error) {
	defer errorx.Wrap(&err, "unable to get key %q from %q keyspace", k, ks.name)

	row := ks.db.QueryRowContext(
		ctx,
		`SELECT value, revision
		FROM psikit.kv
		WHERE keyspace = $1
		AND key = $2`,
		ks.name,
		k,
	)

	var rev commonschema.Uint64
	if err := row.Scan(&v, &rev); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, withSchemaHint(err)
	}

	return v, kv.Revision(rev), nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte, r kv.Revision) (err error) {
	if len(v) == 0 {
		panic("value must not be empty")
	}

	defer errorx.Wrap(&err, "unable to set key %q in %q keyspace", k, ks.name)

	var ok bool
	if r == 0 {
		ok, err = ks.execOne(
			ctx,
			`INSERT INTO psikit.kv (
				keyspace,
				key,
				value,
				revision
			) VALUES (
				$1, $2, $3, $4
			) ON CONFLICT (keyspace, key) DO NOTHING`,
			ks.name,
			k,
			v,
			commonschema.Uint64(1),
		)
	} else {
		ok, err = ks.execOne(
			ctx,
			`UPDATE psikit.kv SET
				value = $3,
				revision = revision + 1
			WHERE keyspace = $1
			AND key = $2
			AND revision = $4`,
			ks.name,
			k,
			v,
			commonschema.Uint64(r),
		)
	}

	if ok || err != nil {
		return err
	}

	return kv.ConflictError{
		Keyspace: ks.name,
		Key:      k,
		Revision: r,
	}
}

func (ks *keyspace) Close() error {
	return nil
}

// execOne executes a query and returns whether exactly one row was affected.
func (ks *keyspace) execOne(
	ctx context.Context,
	query string,
	args ...any,
) (bool, error) {
	res, err := ks.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, withSchemaHint(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// withSchemaHint annotates err if it was caused by the kv table not existing.
func withSchemaHint(err error) error {
	if pgerror.Is(err, pgerror.CodeUndefinedTable) {
		return fmt.Errorf("%w (has CreateSchema() been called?)", err)
	}
	return err
}
