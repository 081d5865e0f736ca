package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLStore stores session snapshots in PostgreSQL.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the sessions table and indexes if needed.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			token_count INTEGER NOT NULL,
			data JSONB NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	if _, err := pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at DESC)"); err != nil {
		return nil, fmt.Errorf("failed to create sessions created_at index: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// Create inserts a new snapshot.
func (s *PostgreSQLStore) Create(ctx context.Context, snap *Snapshot) error {
	payload, err := serializeSnapshot(snap)
	if err != nil {
		return err
	}

	updatedAt := time.Now().Unix()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (id, created_at, updated_at, token_count, data)
		VALUES ($1, $2, $3, $4, $5::jsonb)
	`, snap.ID, snap.CreatedAt, updatedAt, snap.State.Len(), payload)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get returns a snapshot by id.
func (s *PostgreSQLStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, "SELECT data FROM sessions WHERE id = $1", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	snap, err := deserializeSnapshot(payload)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

// List returns snapshots ordered by created_at desc, id desc.
func (s *PostgreSQLStore) List(ctx context.Context, limit int, after string) ([]*Snapshot, error) {
	limit = normalizeLimit(limit)

	var rows pgx.Rows
	var err error
	if after == "" {
		rows, err = s.pool.Query(ctx, `
			SELECT data
			FROM sessions
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, limit)
	} else {
		var cursorCreatedAt int64
		err = s.pool.QueryRow(ctx, "SELECT created_at FROM sessions WHERE id = $1", after).Scan(&cursorCreatedAt)
		switch {
		case err == nil:
			rows, err = s.pool.Query(ctx, `
				SELECT data
				FROM sessions
				WHERE (created_at < $1) OR (created_at = $1 AND id < $2)
				ORDER BY created_at DESC, id DESC
				LIMIT $3
			`, cursorCreatedAt, after, limit)
		case errors.Is(err, pgx.ErrNoRows):
			// Cursor may have been deleted between requests; restart pagination from newest items.
			rows, err = s.pool.Query(ctx, `
				SELECT data
				FROM sessions
				ORDER BY created_at DESC, id DESC
				LIMIT $1
			`, limit)
		default:
			return nil, fmt.Errorf("query after cursor: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	items := make([]*Snapshot, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		snap, err := deserializeSnapshot(payload)
		if err != nil {
			return nil, fmt.Errorf("decode session row: %w", err)
		}
		items = append(items, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return items, nil
}

// Update replaces a stored snapshot.
func (s *PostgreSQLStore) Update(ctx context.Context, snap *Snapshot) error {
	payload, err := serializeSnapshot(snap)
	if err != nil {
		return err
	}

	updatedAt := time.Now().Unix()
	cmd, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET updated_at = $1, token_count = $2, data = $3::jsonb
		WHERE id = $4
	`, updatedAt, snap.State.Len(), payload, snap.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a snapshot.
func (s *PostgreSQLStore) Delete(ctx context.Context, id string) error {
	cmd, err := s.pool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; pool lifecycle is managed by storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
