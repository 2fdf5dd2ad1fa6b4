package db

import (
	"path/filepath"
	"testing"
)

// newTestDB opens a schema-initialised store in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}
