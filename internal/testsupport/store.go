// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"testing"

	"narrate/internal/jobs"
)

// MustOpenStore opens a job store in a per-test temporary directory and
// closes it when the test finishes.
func MustOpenStore(t *testing.T) *jobs.Store {
	t.Helper()
	store, err := jobs.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open job store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close job store: %v", err)
		}
	})
	return store
}
