package telegram

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/yellownote-be/internal/database"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "telegram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
