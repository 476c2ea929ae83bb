package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/lolauction/go/internal/draft/outbox/worker"
)

const DefaultNotifyChannel = "auction_outbox_events"

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	MaxRetries       int
	RetryDelay       time.Duration
	PingInterval     time.Duration
	BatchSize        int32 // Max events to fetch per batch
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    DefaultNotifyChannel,
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// EventSource is the slice of the outbox App the listener relies on.
type EventSource interface {
	GetEventByID(ctx context.Context, id uuid.UUID) (*worker.OutboxEvent, error)
	ProcessUnsentEvents(ctx context.Context, batchSize int32, processor func(event worker.OutboxEvent) error) (int, error)
	MarkEventSent(ctx context.Context, id uuid.UUID) error
}

type notificationConn interface {
	Notifications() <-chan *pq.Notification
	Ping() error
	Close() error
}

type pqConn struct {
	*pq.Listener
}

func (c pqConn) Notifications() <-chan *pq.Notification { return c.Notify }

// Listener relays outbox rows to the publisher as soon as Postgres notifies
// about them, with a periodic sweep for anything a notification missed.
type Listener struct {
	source    EventSource
	conn      notificationConn
	publisher worker.EventPublisher
	metrics   MetricsCollector
	clock     clockwork.Clock
	cfg       ListenerConfig
}

func NewListener(source EventSource, publisher worker.EventPublisher, metrics MetricsCollector, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return newListener(source, pqConn{l}, publisher, metrics, clockwork.NewRealClock(), cfg), nil
}

func newListener(source EventSource, conn notificationConn, publisher worker.EventPublisher, metrics MetricsCollector, clock clockwork.Clock, cfg ListenerConfig) *Listener {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	return &Listener{
		source:    source,
		conn:      conn,
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		cfg:       cfg,
	}
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	pingTicker := l.clock.NewTicker(l.cfg.PingInterval)
	fallbackTicker := l.clock.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	// Rows written while the relay was down never get a notification.
	if err := l.processUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.conn.Notifications():
			if note == nil {
				// nil notification means the connection was re-established;
				// anything sent in between is only visible to a sweep
				if err := l.processUnsent(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process unsent events")
				}
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.Chan():
			if err := l.processUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pingTicker.Chan():
			if err := l.conn.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.conn.Close()
}

// handleNotification handles a pg listen notification. Extra is the event ID.
// It fetches the outbox event, publishes it and marks it sent.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := l.source.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			log.Debug().Str("event_id", id.String()).Msg("event already relayed")
			return nil
		}
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	if err := l.publishWithRetry(ctx, *event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := l.source.MarkEventSent(ctx, id); err != nil {
		return fmt.Errorf("failed to mark outbox event %s as sent: %w", id, err)
	}

	log.Info().Str("event_id", id.String()).Msg("published and marked event as sent")
	return nil
}

// processUnsent sweeps one batch of unsent events.
func (l *Listener) processUnsent(ctx context.Context) error {
	start := l.clock.Now()
	n, err := l.source.ProcessUnsentEvents(ctx, l.cfg.BatchSize, func(event worker.OutboxEvent) error {
		return l.publishWithRetry(ctx, event)
	})
	if err != nil {
		return err
	}
	if n > 0 {
		l.metrics.RecordBatchProcessed(n, l.clock.Since(start))
	}
	return nil
}

// publishWithRetry publishes with a linearly growing delay between attempts.
func (l *Listener) publishWithRetry(ctx context.Context, event worker.OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := l.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.clock.After(delay):
			}
		}

		start := l.clock.Now()
		err := l.publisher.Publish(ctx, event)
		l.metrics.RecordPublishAttempt(event.EventType, attempt+1, err == nil)
		if err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}
		l.metrics.RecordEventProcessed(event.EventType, true, l.clock.Since(start))

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	l.metrics.RecordEventProcessed(event.EventType, false, 0)
	return fmt.Errorf("publish failed after %d attempts: %w", l.cfg.MaxRetries+1, lastErr)
}
