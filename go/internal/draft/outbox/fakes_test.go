package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcdev12/lolauction/go/internal/draft/outbox/worker"
)

type memRepo struct {
	mu     sync.Mutex
	events []worker.OutboxEvent
}

func (r *memRepo) InsertOutboxEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.events = append(r.events, worker.OutboxEvent{
		ID:        id,
		DraftID:   draftID,
		EventType: eventType,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now(),
	})
	return id, nil
}

func (r *memRepo) FetchUnsentOutbox(ctx context.Context, limit int32) ([]worker.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []worker.OutboxEvent
	for _, ev := range r.events {
		if ev.SentAt == nil && len(out) < int(limit) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *memRepo) MarkOutboxSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].SentAt = &sentAt
			return nil
		}
	}
	return ErrEventNotFound
}

func (r *memRepo) FetchOutboxByID(ctx context.Context, id uuid.UUID) (*worker.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.ID == id && ev.SentAt == nil {
			ev := ev
			return &ev, nil
		}
	}
	return nil, ErrEventNotFound
}

func (r *memRepo) CountUnsentOutbox(ctx context.Context) (int, error) {
	evts, _ := r.FetchUnsentOutbox(ctx, 1<<30)
	return len(evts), nil
}

func (r *memRepo) unsent() int {
	n, _ := r.CountUnsentOutbox(context.Background())
	return n
}

// recordingPublisher fails the first failures calls and records the rest.
type recordingPublisher struct {
	mu        sync.Mutex
	failures  int
	calls     int
	published []worker.OutboxEvent
	ch        chan worker.OutboxEvent
}

func newRecordingPublisher(failures int) *recordingPublisher {
	return &recordingPublisher{failures: failures, ch: make(chan worker.OutboxEvent, 16)}
}

func (p *recordingPublisher) Publish(ctx context.Context, event worker.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("nats unavailable")
	}
	p.published = append(p.published, event)
	p.ch <- event
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type fakeConn struct {
	notify chan *pq.Notification
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{notify: make(chan *pq.Notification, 4)}
}

func (c *fakeConn) Notifications() <-chan *pq.Notification { return c.notify }
func (c *fakeConn) Ping() error                            { return nil }
func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}
