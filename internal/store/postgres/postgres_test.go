package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cartola/internal/store"
	"github.com/cleared-dev/cartola/internal/store/storetest"
)

// Set CARTOLA_TEST_POSTGRES_DSN to a throwaway database to run these tests.
// Every subtest drops and recreates the schema.
func TestConformance(t *testing.T) {
	dsn := os.Getenv("CARTOLA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CARTOLA_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(dsn)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		require.NoError(t, s.db.Migrator().DropTable(
			&transactionRow{}, &tombstoneRow{}, &ignoredRow{}, &categoryRow{}, &categoryMapRow{},
		))
		require.NoError(t, s.Migrate(context.Background()))
		return s
	})
}
