// Package sessionstore persists session snapshots so a conversation's
// redaction state survives process restarts and can be shared across
// instances.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"piigate/internal/core"
)

// ErrNotFound indicates a requested session was not found.
var ErrNotFound = errors.New("session not found")

// Snapshot is the persisted form of one session: its accumulated
// state plus bookkeeping timestamps (unix seconds).
type Snapshot struct {
	ID        string     `json:"id"`
	State     core.State `json:"state"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
}

// Store defines persistence operations for session snapshots.
type Store interface {
	Create(ctx context.Context, snap *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context, limit int, after string) ([]*Snapshot, error)
	Update(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
	Close() error
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 20
	case limit > 101:
		return 101
	default:
		return limit
	}
}

func cloneSnapshot(src *Snapshot) (*Snapshot, error) {
	raw, err := serializeSnapshot(src)
	if err != nil {
		return nil, err
	}
	return deserializeSnapshot(raw)
}

func serializeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return raw, nil
}

func deserializeSnapshot(raw []byte) (*Snapshot, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty snapshot payload")
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
