// Package testpg starts a throwaway Postgres for integration tests.
package testpg

import (
	"context"
	"database/sql"
	"testing"

	"football-backend/database"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const image = "postgres:16-alpine"

// Start runs a container with the reference schema loaded and returns an open
// handle. Everything is torn down when t finishes.
func Start(t testing.TB) *sql.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase("football"),
		postgres.WithUsername("football"),
		postgres.WithPassword("football"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	db, err := database.Connect(ctx, dsn, database.DefaultPool)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, database.Schema); err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return db
}

// Exec runs statements in order and fails the test on the first error.
func Exec(t testing.TB, db *sql.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}
