package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS auction_snapshots (
    draft_id    UUID PRIMARY KEY,
    started_at  TIMESTAMPTZ NOT NULL,
    saved_at    TIMESTAMPTZ NOT NULL,
    state       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS auction_snapshots_saved_idx ON auction_snapshots (saved_at DESC);
`

const (
	upsertSnapshot = `
INSERT INTO auction_snapshots (draft_id, started_at, saved_at, state)
VALUES ($1, $2, $3, $4)
ON CONFLICT (draft_id) DO UPDATE
SET saved_at = EXCLUDED.saved_at, state = EXCLUDED.state`

	latestSnapshot = `
SELECT draft_id::text, started_at, saved_at, state
FROM auction_snapshots
ORDER BY saved_at DESC
LIMIT 1`
)

// PostgresStore keeps one row per draft and resumes the most recent one.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the snapshot table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	state, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if _, err := s.pool.Exec(ctx, upsertSnapshot, rec.DraftID.String(), rec.StartedAt, rec.SavedAt, state); err != nil {
		return fmt.Errorf("failed to save snapshot for draft %s: %w", rec.DraftID, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (Record, error) {
	var (
		rec   Record
		id    string
		state []byte
	)
	err := s.pool.QueryRow(ctx, latestSnapshot).Scan(&id, &rec.StartedAt, &rec.SavedAt, &state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNoSnapshot
		}
		return Record{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if rec.DraftID, err = uuid.Parse(id); err != nil {
		return Record{}, fmt.Errorf("invalid draft id %q: %w", id, err)
	}
	if err := json.Unmarshal(state, &rec.State); err != nil {
		return Record{}, fmt.Errorf("failed to decode snapshot for draft %s: %w", id, err)
	}
	return rec, nil
}
