package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	EventsPublished   uint64    `json:"events_published"`
	PublishFailures   uint64    `json:"publish_failures"`
	LastEventTime     time.Time `json:"last_event_time"`
	PendingEvents     int       `json:"pending_events"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	Errors            []string  `json:"errors"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PendingCounter reports how many outbox rows wait for delivery.
type PendingCounter interface {
	CountUnsentOutbox(ctx context.Context) (int, error)
}

// HealthChecker reports on the relay's dependencies and progress.
type HealthChecker struct {
	db        Pinger
	pending   PendingCounter
	connected func() bool
	stats     *StatsCollector
	now       func() time.Time
	// threshold is how long pending events may sit with nothing published
	threshold time.Duration
	// pendingLimit marks a backlog worth reporting
	pendingLimit int
}

func NewHealthChecker(db Pinger, pending PendingCounter, natsConnected func() bool, stats *StatsCollector, threshold time.Duration) *HealthChecker {
	return &HealthChecker{
		db:           db,
		pending:      pending,
		connected:    natsConnected,
		stats:        stats,
		now:          time.Now,
		threshold:    threshold,
		pendingLimit: 1000,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.stats != nil {
		s := h.stats.Snapshot()
		status.EventsPublished = s.Published
		status.PublishFailures = s.Failed
		status.LastEventTime = s.LastEventTime
	}

	if err := h.db.PingContext(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	if h.connected != nil {
		status.NATSConnected = h.connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if status.DatabaseConnected {
		pending, err := h.pending.CountUnsentOutbox(ctx)
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		} else {
			status.PendingEvents = pending
			if pending > h.pendingLimit {
				status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", pending))
			}
		}
	}

	if status.PendingEvents > 0 && !status.LastEventTime.IsZero() {
		idle := h.now().Sub(status.LastEventTime)
		if idle > h.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no events published for %s", idle.Round(time.Second)))
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}
