package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerly/ledgerly-server-go/internal/database"
)

// setupTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests are skipped when no database is configured.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, url)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	_, err = db.ExecContext(ctx, `TRUNCATE accounts, oauth_states, contacts`)
	require.NoError(t, err)

	return db
}

func strPtr(s string) *string { return &s }
