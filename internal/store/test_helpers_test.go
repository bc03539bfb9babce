package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

var testTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

// createTestStore creates a new seeded store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path, DefaultSchema())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// inTx runs fn in a transaction and fails the test on error.
func inTx(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	if err := s.WithTx(context.Background(), fn); err != nil {
		t.Fatalf("WithTx() failed: %v", err)
	}
}

func strPtr(s string) *string { return &s }
