// Package testutil provides shared test helpers for setting up databases and
// export directories.
package testutil

import (
	"os"
	"testing"

	"github.com/vmoreira/plume/internal/storage"
	"github.com/vmoreira/plume/internal/store"
)

// TestDB creates a temporary SQLite note store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "plume-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestExportDir creates a temporary export directory with a storage.Provider.
func TestExportDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, files
}
