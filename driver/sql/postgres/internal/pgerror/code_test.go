package pgerror_test

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/dogmatiq/psikit/driver/sql/postgres/internal/pgerror"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIs(t *testing.T) {
	err := fmt.Errorf("<context>: %w", &pgconn.PgError{Code: CodeUniqueViolation})

	if !Is(err, CodeUndefinedTable, CodeUniqueViolation) {
		t.Fatal("expected wrapped error to match")
	}

	if Is(err, CodeUndefinedTable) {
		t.Fatal("did not expect error to match a different code")
	}

	if Is(errors.New("<error>"), CodeUniqueViolation) {
		t.Fatal("did not expect a non-PostgreSQL error to match")
	}
}
