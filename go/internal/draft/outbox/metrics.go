package outbox

import (
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting outbox metrics
type MetricsCollector interface {
	RecordEventProcessed(eventType string, success bool, duration time.Duration)
	RecordBatchProcessed(count int, duration time.Duration)
	RecordPublishAttempt(eventType string, attempt int, success bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordEventProcessed(eventType string, success bool, duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordBatchProcessed(count int, duration time.Duration) {}
func (n *NoOpMetricsCollector) RecordPublishAttempt(eventType string, attempt int, success bool) {}

// Stats is a point-in-time copy of the relay counters.
type Stats struct {
	Published     uint64            `json:"published"`
	Failed        uint64            `json:"failed"`
	Retries       uint64            `json:"retries"`
	Batches       uint64            `json:"batches"`
	LastEventTime time.Time         `json:"last_event_time"`
	ByType        map[string]uint64 `json:"by_type"`
}

// StatsCollector keeps relay counters in memory for the health endpoint.
type StatsCollector struct {
	mu    sync.Mutex
	now   func() time.Time
	stats Stats
}

func NewStatsCollector(now func() time.Time) *StatsCollector {
	if now == nil {
		now = time.Now
	}
	return &StatsCollector{
		now:   now,
		stats: Stats{ByType: make(map[string]uint64)},
	}
}

func (c *StatsCollector) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !success {
		c.stats.Failed++
		return
	}
	c.stats.Published++
	c.stats.ByType[eventType]++
	c.stats.LastEventTime = c.now()
}

func (c *StatsCollector) RecordBatchProcessed(count int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Batches++
}

func (c *StatsCollector) RecordPublishAttempt(eventType string, attempt int, success bool) {
	if attempt <= 1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Retries++
}

// Snapshot returns a copy of the counters.
func (c *StatsCollector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.stats
	out.ByType = make(map[string]uint64, len(c.stats.ByType))
	for k, v := range c.stats.ByType {
		out.ByType[k] = v
	}
	return out
}
