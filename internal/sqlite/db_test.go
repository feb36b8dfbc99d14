package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// newFileDB opens a migrated database file, as a separate process would.
func newFileDB(t *testing.T, path string) *DB {
	t.Helper()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	for _, table := range []string{"kv_entries", "activity_log"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsIdempotent verifies a second tab can migrate an existing file
func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bids.db")
	newFileDB(t, path)

	db := newFileDB(t, path)
	require.NoError(t, db.RunMigrations())
}
