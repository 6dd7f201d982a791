package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"expensetracker/internal/kv"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := s.Get(ctx, kv.KeyExpenses); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Set(ctx, kv.KeyExpenses, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, kv.KeyExpenses, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	// A second store over the same directory sees the persisted value.
	s2, err := New(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := s2.Get(ctx, kv.KeyExpenses)
	if err != nil || string(got) != `[{"id":"a"}]` {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected a single file and no temp leftovers, got %d entries", len(entries))
	}
}

func TestFileStoreKeysWithSlashes(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, "a/b", []byte(`1`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, err := s.Get(ctx, "a/b"); err != nil || string(got) != "1" {
		t.Fatalf("unexpected %q err=%v", got, err)
	}
}
