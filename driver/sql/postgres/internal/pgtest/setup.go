package pgtest

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Setup starts a PostgreSQL container and returns a connection to it. The
// container is terminated when the test ends.
//
// The test is skipped if no container runtime is available.
func Setup(t *testing.T) *sql.DB {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	container, err := postgres.Run(
		t.Context(),
		"postgres:17-alpine",
		postgres.BasicWaitStrategies(),
		postgres.WithDatabase("psikit"),
		postgres.WithUsername("psikit"),
		postgres.WithPassword(uuid.NewString()),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatal(err)
	}

	dsn, err := container.ConnectionString(t.Context(), "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("cannot open test database: %s", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Error(err)
		}
	})

	return db
}
