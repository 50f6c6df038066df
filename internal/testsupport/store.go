package testsupport

import (
	"context"
	"testing"

	"stemset/internal/builds"
	"stemset/internal/config"
)

// MustOpenStore opens a builds.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *builds.Store {
	t.Helper()

	store, err := builds.Open(cfg)
	if err != nil {
		t.Fatalf("builds.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecord creates a pending build record for tests using the provided store.
func NewRecord(t testing.TB, store *builds.Store, runID, fname string) *builds.Record {
	t.Helper()

	record, err := store.NewRecord(context.Background(), runID, fname)
	if err != nil {
		t.Fatalf("store.NewRecord: %v", err)
	}
	return record
}
