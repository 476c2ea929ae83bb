package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/lolauction/go/internal/auction"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Record is one persisted draft state.
type Record struct {
	DraftID   uuid.UUID        `json:"draft_id"`
	StartedAt time.Time        `json:"started_at"`
	SavedAt   time.Time        `json:"saved_at"`
	State     auction.Snapshot `json:"state"`
}

// Store persists the latest snapshot of a draft.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// Load returns the most recently saved record.
	Load(ctx context.Context) (Record, error)
}

// NopStore discards every snapshot.
type NopStore struct{}

func (NopStore) Save(context.Context, Record) error { return nil }

func (NopStore) Load(context.Context) (Record, error) { return Record{}, ErrNoSnapshot }
