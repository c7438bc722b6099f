// Package testdb provides utilities for database integration tests. It
// depends only on the store contracts and the migration runner, not on
// individual store implementations.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"

	"startask/internal/platform/postgres"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// URL returns the database URL for integration tests, or "" when none is
// configured. Tests call SkipIfNoDatabase instead of reading this directly.
func URL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("STARTASK_TEST_DB_URL")
	}
	return dbURL
}

// SkipIfNoDatabase skips the test unless an integration database is
// configured via DATABASE_URL or STARTASK_TEST_DB_URL.
func SkipIfNoDatabase(t *testing.T) {
	t.Helper()
	if URL() == "" {
		t.Skip("integration test requires DATABASE_URL or STARTASK_TEST_DB_URL")
	}
}

// Connect opens a connection to the test database, applies the embedded
// migrations, and registers cleanup. The test is skipped when no database
// is configured.
func Connect(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfNoDatabase(t)

	db, err := sql.Open("pgx", URL())
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "failed to ping test database")

	require.NoError(t, postgres.Migrate(db, "up"), "failed to apply migrations")

	return db
}

// WithTx executes a test function within a transaction that is always
// rolled back, keeping tests isolated from each other.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if tx is already committed or rolled back
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
