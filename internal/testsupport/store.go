package testsupport

import (
	"context"
	"testing"

	"rentprep/internal/config"
	"rentprep/internal/store"
)

// MustOpenStore opens a listing store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewListing inserts a pending listing for tests using the provided store.
func NewListing(t testing.TB, st *store.Store, link, title, district string) *store.Listing {
	t.Helper()

	listing, err := st.NewListing(context.Background(), &store.Listing{
		Link:     link,
		Title:    title,
		District: district,
	})
	if err != nil {
		t.Fatalf("store.NewListing: %v", err)
	}
	return listing
}

// WriteCSV writes a CSV fixture to the given path.
func WriteCSV(t testing.TB, path, content string) {
	t.Helper()

	writeFixture(t, path, content)
}
