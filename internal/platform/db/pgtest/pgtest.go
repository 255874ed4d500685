//go:build integration

// Package pgtest provides a migrated PostgreSQL pool for integration tests.
//
// Tests use the database named by POS_TEST_PG_DSN when it is set and otherwise
// start a postgres:16-alpine container shared by every test in the binary.
// Every call truncates the schema, so packages sharing one external database
// must run with -p 1.
package pgtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

// DSNEnv names an external database to use instead of a container.
const DSNEnv = "POS_TEST_PG_DSN"

const truncateSQL = `TRUNCATE products, purchases, sales, other_entries, idempotency_keys, audit_logs RESTART IDENTITY CASCADE`

var (
	sharedOnce sync.Once
	sharedDSN  string
	sharedErr  error
)

// Pool returns a pool on an empty, migrated schema. It skips the test in
// short mode and when no container runtime is reachable.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		dsn = containerDSN(t)
	}

	pool, err := db.New(ctx, dsn)
	require.NoError(t, err, "connect postgres")
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, truncateSQL)
	require.NoError(t, err, "reset schema")
	return pool
}

// containerDSN starts the shared container once. It is reaped with the test process.
func containerDSN(t *testing.T) string {
	t.Helper()
	sharedOnce.Do(func() {
		ctx := context.Background()
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("pos_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			sharedErr = err
			return
		}
		sharedDSN, sharedErr = container.ConnectionString(ctx, "sslmode=disable")
	})
	require.NoError(t, sharedErr, "start postgres container")
	return sharedDSN
}
