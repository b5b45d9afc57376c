//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/voltio/voltio-backend/internal/store"
	"github.com/voltio/voltio-backend/internal/store/storetest"
)

// Requires Docker. Run with: go test -tags integration ./internal/store/postgres/
func TestPostgresStoreCompliance(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("voltio"),
		tcpostgres.WithUsername("voltio"),
		tcpostgres.WithPassword("voltio"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(ctx, dsn)
		require.NoError(t, err)
		return s
	})
}
