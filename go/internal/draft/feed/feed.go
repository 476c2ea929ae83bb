// Package feed turns published auction events into a short, human readable
// activity log.
package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mcdev12/lolauction/go/internal/draft/events"
	"github.com/mcdev12/lolauction/go/internal/draft/outbox/worker"
)

const DefaultCapacity = 200

// Entry is one line of the activity log.
type Entry struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	DraftID   string    `json:"draft_id"`
	At        time.Time `json:"at"`
	Summary   string    `json:"summary"`
}

// Log keeps the most recent entries, oldest first. Redelivered events are
// recorded once.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	seen     map[string]bool
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, seen: make(map[string]bool)}
}

// Add appends e and reports whether it was new.
func (l *Log) Add(e Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen[e.EventID] {
		return false
	}
	l.seen[e.EventID] = true
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.capacity; over > 0 {
		for _, old := range l.entries[:over] {
			delete(l.seen, old.EventID)
		}
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
	return true
}

// Recent returns up to n of the newest entries, oldest first. n <= 0 returns
// everything kept.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if n > 0 && n < len(l.entries) {
		start = len(l.entries) - n
	}
	return append([]Entry(nil), l.entries[start:]...)
}

// Process decodes one published envelope and records it.
func (l *Log) Process(data []byte) (Entry, bool, error) {
	var env worker.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Entry{}, false, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.EventID == "" {
		return Entry{}, false, fmt.Errorf("envelope has no event id")
	}
	summary, err := Summarize(events.Type(env.EventType), env.Payload)
	if err != nil {
		return Entry{}, false, err
	}
	e := Entry{
		EventID:   env.EventID,
		EventType: env.EventType,
		DraftID:   env.DraftID,
		At:        env.CreatedAt,
		Summary:   summary,
	}
	return e, l.Add(e), nil
}

// Summarize renders a payload as one sentence.
func Summarize(t events.Type, payload json.RawMessage) (string, error) {
	switch t {
	case events.TypeDraftStarted:
		var p events.DraftStartedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		if p.Resumed {
			return fmt.Sprintf("Draft resumed in %s", p.Phase), nil
		}
		return fmt.Sprintf("Draft started: %d teams, %d nominees", p.Teams, p.Nominees), nil
	case events.TypeBidPlaced:
		var p events.BidPlacedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s bids %d on %s", p.TeamName, p.Amount, p.Nominee), nil
	case events.TypeNomineeAssigned:
		var p events.NomineeAssignedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s joins %s for %d (%d left)", p.Nominee, p.TeamName, p.Amount, p.BudgetRemaining), nil
	case events.TypeNomineeSkipped:
		var p events.NomineeSkippedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s passed in %s", p.Nominee, p.Phase), nil
	case events.TypeActionUndone:
		var p events.ActionUndonePayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		if p.Nominee == "" {
			return fmt.Sprintf("Undid %s", p.Kind), nil
		}
		return fmt.Sprintf("Undid %s on %s", p.Kind, p.Nominee), nil
	case events.TypePhaseChanged:
		var p events.PhaseChangedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Phase %s -> %s (%d offered)", p.From, p.To, p.Offered), nil
	case events.TypeLotteryCompleted:
		var p events.LotteryCompletedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		var placed []string
		for _, pl := range p.Placements {
			if pl.TeamID != 0 {
				placed = append(placed, fmt.Sprintf("%s to %s", pl.Nominee, pl.TeamName))
			}
		}
		s := fmt.Sprintf("Lottery placed %d", len(placed))
		if len(placed) > 0 {
			s += ": " + strings.Join(placed, ", ")
		}
		if len(p.FullyUnsold) > 0 {
			s += fmt.Sprintf("; unplaced: %s", strings.Join(p.FullyUnsold, ", "))
		}
		return s, nil
	case events.TypeDraftCompleted:
		var p events.DraftCompletedPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Draft complete after %s: %d assigned, %d unplaced", p.Duration, p.TotalAssigned, p.FullyUnsold), nil
	case events.TypeBidTimerExpired:
		var p events.BidTimerExpiredPayload
		if err := decode(t, payload, &p); err != nil {
			return "", err
		}
		return fmt.Sprintf("Time is up on %s", p.Nominee), nil
	default:
		return "", fmt.Errorf("unknown event type %q", t)
	}
}

func decode(t events.Type, payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", t, err)
	}
	return nil
}
