package sessionstore

import (
	"context"
	"testing"

	"piigate/internal/core"
)

func snapshotWithEmail(id string, createdAt int64, value string) *Snapshot {
	state := core.NewState().WithToken(core.Token{
		Original: value,
		Kind:     core.KindEmail,
		Index:    1,
		Entity:   core.MustEntity(core.KindEmail, value, 0, len(value), 0.95),
	})
	return &Snapshot{ID: id, State: state, CreatedAt: createdAt}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := snapshotWithEmail("sess-1", 100, "a@x.com")
	if err := store.Create(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != snap.ID {
		t.Fatalf("id = %q, want %q", got.ID, snap.ID)
	}
	tok, ok := got.State.Lookup("[EMAIL_1]")
	if !ok || tok.Original != "a@x.com" {
		t.Fatalf("state binding lost: %v", got.State.Labels())
	}

	got.State = got.State.WithToken(core.Token{
		Original: "b@x.com",
		Kind:     core.KindEmail,
		Index:    2,
		Entity:   core.MustEntity(core.KindEmail, "b@x.com", 0, 7, 0.95),
	})
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	got2, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got2.State.Len() != 2 {
		t.Fatalf("state len = %d, want 2", got2.State.Len())
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); err != ErrNotFound {
		t.Fatalf("get after delete: %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListAfter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	inputs := []*Snapshot{
		snapshotWithEmail("sess-c", 3, "c@x.com"),
		snapshotWithEmail("sess-b", 2, "b@x.com"),
		snapshotWithEmail("sess-a", 1, "a@x.com"),
	}
	for _, snap := range inputs {
		if err := store.Create(ctx, snap); err != nil {
			t.Fatalf("create %s: %v", snap.ID, err)
		}
	}

	list, err := store.List(ctx, 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list len = %d, want 2", len(list))
	}
	if list[0].ID != "sess-c" || list[1].ID != "sess-b" {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}

	next, err := store.List(ctx, 2, "sess-b")
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(next) != 1 || next[0].ID != "sess-a" {
		t.Fatalf("unexpected after result: %+v", next)
	}
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := snapshotWithEmail("sess-1", 1, "a@x.com")
	if err := store.Create(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Mutating the caller's snapshot must not affect the stored copy.
	snap.CreatedAt = 999
	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CreatedAt != 1 {
		t.Fatalf("stored snapshot mutated: created_at = %d", got.CreatedAt)
	}
}

func TestSerializeSnapshotNil(t *testing.T) {
	if _, err := serializeSnapshot(nil); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
}
