package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"maintcore/internal/infra/kvstore"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStoreSetGetKeysDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Get(ctx, "maint/costs"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, "maint/costs", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "maint/costs", []byte(`[{"id":"CST-001"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := store.Get(ctx, "maint/costs")
	if err != nil || string(got) != `[{"id":"CST-001"}]` {
		t.Fatalf("get: %s %v", got, err)
	}
	_ = store.Set(ctx, "other", []byte("1"))
	keys, err := store.Keys(ctx, "maint/")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "maint/costs" {
		t.Fatalf("unexpected keys %v", keys)
	}
	if err := store.Delete(ctx, "maint/costs"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "maint/costs"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for i := 0; i < 3; i++ {
		if err := store.Set(ctx, "equipment", []byte("[]")); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	entries, err := os.ReadDir(store.root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "equipment.json" {
		t.Fatalf("unexpected files %v", entries)
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "  ", "../etc/passwd", "/abs", "a/../../b"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
	ctx := context.Background()
	store := newTempStore(t)
	if err := store.Set(ctx, "../escape", []byte("x")); err == nil {
		t.Fatalf("expected set to reject traversal")
	}
}

func TestIncrPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for want := int64(1); want <= 3; want++ {
		got, err := first.Incr(ctx, "seq/work_order")
		if err != nil || got != want {
			t.Fatalf("incr=%d,%v want %d", got, err, want)
		}
	}
	second, _ := New(dir)
	if got, _ := second.Incr(ctx, "seq/work_order"); got != 4 {
		t.Fatalf("counter not durable: %d", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "seq", "work_order.json")); err != nil {
		t.Fatalf("counter file missing: %v", err)
	}
}
