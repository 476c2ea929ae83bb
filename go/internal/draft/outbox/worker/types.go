package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one row of the auction outbox.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Subject is the NATS subject the event is published on.
func (e OutboxEvent) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, e.EventType)
}

type EventPublisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}
