package sqlite

import (
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

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"phase_times",
		"phase_comments",
		"defects",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// Running again must not fail on an existing schema
	require.NoError(t, db.RunMigrations())
}

func TestSynchronousFull(t *testing.T) {
	db := NewTestDB(t)

	var level int
	err := db.QueryRow("PRAGMA synchronous").Scan(&level)
	require.NoError(t, err)
	require.Equal(t, 2, level, "synchronous should be FULL")
}

// TestPhaseCheckConstraint verifies unknown phases are rejected by the schema
func TestPhaseCheckConstraint(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.Exec(`INSERT INTO phase_times (phase) VALUES (?)`, "review")
	require.Error(t, err)
	require.True(t, isCheckViolation(err))
}
