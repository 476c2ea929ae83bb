package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/lolauction/go/internal/draft/outbox/worker"
	"github.com/mcdev12/lolauction/go/internal/sqlutil"
)

// Schema creates the outbox table. The partial index keeps the unsent scan
// cheap once most rows are delivered.
const Schema = `
CREATE TABLE IF NOT EXISTS auction_outbox (
    id          UUID PRIMARY KEY,
    draft_id    UUID NOT NULL,
    event_type  TEXT NOT NULL,
    payload     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS auction_outbox_unsent_idx
    ON auction_outbox (created_at) WHERE sent_at IS NULL;
`

const (
	insertOutbox = `
INSERT INTO auction_outbox (id, draft_id, event_type, payload)
VALUES ($1, $2, $3, $4)`

	notifyOutbox = `SELECT pg_notify($1, $2)`

	fetchUnsentOutbox = `
SELECT id, draft_id, event_type, payload, created_at, sent_at
FROM auction_outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1`

	fetchOutboxByID = `
SELECT id, draft_id, event_type, payload, created_at, sent_at
FROM auction_outbox
WHERE id = $1 AND sent_at IS NULL`

	markOutboxSent = `UPDATE auction_outbox SET sent_at = $2 WHERE id = $1`

	countUnsentOutbox = `SELECT COUNT(*) FROM auction_outbox WHERE sent_at IS NULL`
)

// ErrEventNotFound is returned when an event is missing or already sent.
var ErrEventNotFound = errors.New("outbox event not found or already sent")

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries binds the outbox statements to a connection or a transaction.
type queries struct {
	db dbtx
}

func newQueries(tx *sql.Tx) *queries {
	return &queries{db: tx}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (worker.OutboxEvent, error) {
	var (
		ev      worker.OutboxEvent
		payload []byte
		sentAt  sql.NullTime
	)
	if err := row.Scan(&ev.ID, &ev.DraftID, &ev.EventType, &payload, &ev.CreatedAt, &sentAt); err != nil {
		return worker.OutboxEvent{}, err
	}
	ev.Payload = payload
	ev.SentAt = sqlutil.FromNullTime(sentAt)
	return ev, nil
}

// Repository stores outbox events in Postgres using lib/pq.
type Repository struct {
	db      *sql.DB
	channel string
}

// NewRepository returns a repository that notifies on channel after every
// insert.
func NewRepository(db *sql.DB, channel string) *Repository {
	return &Repository{
		db:      db,
		channel: channel,
	}
}

// Migrate creates the outbox table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate outbox schema: %w", err)
	}
	return nil
}

// InsertOutboxEvent writes the event and raises a NOTIFY carrying its ID in
// the same transaction, so the relay only hears about committed rows.
func (r *Repository) InsertOutboxEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) (uuid.UUID, error) {
	id := uuid.New()
	err := sqlutil.Run(ctx, r.db, newQueries, func(q *queries) error {
		if _, err := q.db.ExecContext(ctx, insertOutbox, id, draftID, eventType, payload); err != nil {
			return err
		}
		_, err := q.db.ExecContext(ctx, notifyOutbox, r.channel, id.String())
		return err
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return id, nil
}

func (r *Repository) FetchUnsentOutbox(ctx context.Context, limit int32) ([]worker.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var events []worker.OutboxEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox events: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, markOutboxSent, id, sentAt); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

func (r *Repository) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*worker.OutboxEvent, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, fetchOutboxByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	return &ev, nil
}

func (r *Repository) CountUnsentOutbox(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countUnsentOutbox).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unsent outbox events: %w", err)
	}
	return count, nil
}
