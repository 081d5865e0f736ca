package sessionstore

import (
	"context"
	"path/filepath"
	"testing"

	"piigate/internal/storage"
)

func TestSQLiteStoreLifecycle(t *testing.T) {
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sessions.db")})
	if err != nil {
		t.Fatalf("new sqlite storage: %v", err)
	}
	defer st.Close()

	store, err := NewSQLiteStore(st.SQLiteDB())
	if err != nil {
		t.Fatalf("new sqlite session store: %v", err)
	}

	ctx := context.Background()
	snap := snapshotWithEmail("sess-sql-1", 123, "jane@x.com")

	if err := store.Create(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != snap.ID {
		t.Fatalf("id = %q, want %q", got.ID, snap.ID)
	}
	tok, ok := got.State.Lookup("[EMAIL_1]")
	if !ok || tok.Original != "jane@x.com" {
		t.Fatalf("state binding lost after round trip")
	}

	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := store.List(ctx, 10, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list len = %d, want 1", len(list))
	}

	if err := store.Delete(ctx, snap.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, snap.ID); err != ErrNotFound {
		t.Fatalf("second delete: %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreGetMissing(t *testing.T) {
	st, err := storage.NewSQLite(storage.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sessions.db")})
	if err != nil {
		t.Fatalf("new sqlite storage: %v", err)
	}
	defer st.Close()

	store, err := NewSQLiteStore(st.SQLiteDB())
	if err != nil {
		t.Fatalf("new sqlite session store: %v", err)
	}

	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
