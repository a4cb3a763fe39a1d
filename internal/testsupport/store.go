package testsupport

import (
	"context"
	"testing"

	"mediakeep/internal/catalog"
	"mediakeep/internal/config"
)

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddRecord upserts a catalog row for tests.
func AddRecord(t testing.TB, store *catalog.Store, path, metadataJSON string) {
	t.Helper()

	if _, err := store.Upsert(context.Background(), path, metadataJSON); err != nil {
		t.Fatalf("store.Upsert(%s): %v", path, err)
	}
}

// MustGet fetches a catalog row for tests.
func MustGet(t testing.TB, store *catalog.Store, path string) *catalog.Record {
	t.Helper()

	rec, err := store.Get(context.Background(), path)
	if err != nil {
		t.Fatalf("store.Get(%s): %v", path, err)
	}
	return rec
}
