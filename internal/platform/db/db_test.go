package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	require.True(t, IsUniqueViolation(err))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("boom")))
}

func TestSchemaDeclaresJournalTables(t *testing.T) {
	ddl := Schema()
	for _, table := range []string{"products", "purchases", "sales", "other_entries", "idempotency_keys", "audit_logs"} {
		require.True(t, strings.Contains(ddl, "CREATE TABLE IF NOT EXISTS "+table+" "), table)
	}
}
