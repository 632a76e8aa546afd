// Package testutil provides shared test helpers for setting up stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/jera/internal/store"
)

// TestStore creates a store backed by a temporary data directory that is
// automatically cleaned up.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	paths, err := store.ResolvePaths(filepath.Join(dir, "data"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := store.Load(paths)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
