package draft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/draft/events"
	"github.com/mcdev12/lolauction/go/internal/draft/export"
	"github.com/mcdev12/lolauction/go/internal/draft/repository"
	"github.com/mcdev12/lolauction/go/internal/draft/timer"
)

// DefaultBidTimer is the countdown armed for every nominee.
const DefaultBidTimer = 30 * time.Second

// EventInserter defines what the app layer needs from the outbox
type EventInserter interface {
	InsertEvent(ctx context.Context, draftID uuid.UUID, eventType events.Type, payload any) error
}

// Options wires the collaborators of an App. Zero values fall back to a
// no-op store, no events, the real clock and an unseeded random source.
type Options struct {
	Store    repository.Store
	Events   EventInserter
	Clock    clockwork.Clock
	Rand     auction.Rand
	BidTimer time.Duration
}

// App owns one auction session and runs commands against it one at a time.
// Snapshot and event failures are logged and never undo a committed command.
type App struct {
	mu        sync.Mutex
	session   *auction.Session
	draftID   uuid.UUID
	startedAt time.Time

	store  repository.Store
	events EventInserter
	clock  clockwork.Clock
	timer  *timer.Countdown
}

func newApp(opts Options) *App {
	if opts.Store == nil {
		opts.Store = repository.NopStore{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	a := &App{
		store:  opts.Store,
		events: opts.Events,
		clock:  opts.Clock,
	}
	a.timer = timer.New(opts.Clock, opts.BidTimer, a.onTimerExpired)
	return a
}

// New starts a fresh draft from cfg.
func New(ctx context.Context, cfg auction.Config, opts Options) (*App, error) {
	session, err := auction.NewSession(cfg, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to start draft: %w", err)
	}

	a := newApp(opts)
	a.session = session
	a.draftID = uuid.New()
	a.startedAt = a.clock.Now().UTC()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.afterCommand(ctx, events.TypeDraftStarted, a.startedPayload(false))

	log.Info().
		Str("draft_id", a.draftID.String()).
		Int("teams", len(cfg.Teams)).
		Int("nominees", session.Remaining()).
		Str("phase", session.Phase().String()).
		Msg("draft started")
	return a, nil
}

// Resume rebuilds the draft from the last snapshot in opts.Store. It returns
// an error wrapping repository.ErrNoSnapshot when nothing was saved.
func Resume(ctx context.Context, opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("failed to resume draft: %w", repository.ErrNoSnapshot)
	}
	rec, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	session, err := auction.Restore(rec.State, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to restore snapshot: %w", err)
	}

	a := newApp(opts)
	a.session = session
	a.draftID = rec.DraftID
	a.startedAt = rec.StartedAt

	a.mu.Lock()
	defer a.mu.Unlock()
	a.emit(ctx, events.TypeDraftStarted, a.startedPayload(true))
	a.restartTimer()

	log.Info().
		Str("draft_id", a.draftID.String()).
		Time("saved_at", rec.SavedAt).
		Str("phase", session.Phase().String()).
		Int("cursor", session.Cursor()).
		Msg("draft resumed from snapshot")
	return a, nil
}

// Open resumes the stored draft when there is one and starts cfg otherwise.
func Open(ctx context.Context, cfg auction.Config, opts Options) (*App, error) {
	a, err := Resume(ctx, opts)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, repository.ErrNoSnapshot) {
		return nil, err
	}
	return New(ctx, cfg, opts)
}

// DraftID identifies this draft in snapshots and events.
func (a *App) DraftID() uuid.UUID { return a.draftID }

// Close stops the bid timer.
func (a *App) Close() {
	a.timer.Stop()
}

// PlaceBid records a bid by teamID on the current nominee.
func (a *App) PlaceBid(ctx context.Context, teamID, amount int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	nominee, _ := a.session.CurrentNominee()
	if err := a.session.PlaceBid(teamID, amount); err != nil {
		return err
	}

	team, _ := a.session.Team(teamID)
	a.afterCommand(ctx, events.TypeBidPlaced, events.BidPlacedPayload{
		DraftID:        a.draftID.String(),
		Nominee:        nominee.Name,
		TeamID:         teamID,
		TeamName:       team.Name,
		Amount:         amount,
		MinimumNextBid: a.session.MinimumNextBid(),
		PlacedAt:       a.now(),
	})

	log.Info().
		Str("draft_id", a.draftID.String()).
		Str("nominee", nominee.Name).
		Int("team_id", teamID).
		Int("amount", amount).
		Msg("bid placed")
	return nil
}

// Assign sells the current nominee to the leading bidder.
func (a *App) Assign(ctx context.Context) (auction.Assigned, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sale, err := a.session.Assign()
	if err != nil {
		return auction.Assigned{}, err
	}

	team, _ := a.session.Team(sale.TeamID)
	phase := a.session.Phase().String()
	a.afterCommand(ctx, events.TypeNomineeAssigned, events.NomineeAssignedPayload{
		DraftID:         a.draftID.String(),
		Nominee:         sale.Nominee.Name,
		TeamID:          sale.TeamID,
		TeamName:        team.Name,
		Amount:          sale.Amount,
		BudgetRemaining: team.BudgetRemaining,
		Phase:           phase,
		AssignedAt:      a.now(),
	})

	log.Info().
		Str("draft_id", a.draftID.String()).
		Str("nominee", sale.Nominee.Name).
		Int("team_id", sale.TeamID).
		Int("amount", sale.Amount).
		Str("phase", phase).
		Msg("nominee assigned")
	return sale, nil
}

// Skip passes over the current nominee.
func (a *App) Skip(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	nominee, err := a.session.Skip()
	if err != nil {
		return "", err
	}

	phase := a.session.Phase().String()
	a.afterCommand(ctx, events.TypeNomineeSkipped, events.NomineeSkippedPayload{
		DraftID:   a.draftID.String(),
		Nominee:   nominee.Name,
		Phase:     phase,
		SkippedAt: a.now(),
	})

	log.Info().
		Str("draft_id", a.draftID.String()).
		Str("nominee", nominee.Name).
		Str("phase", phase).
		Msg("nominee skipped")
	return nominee.Name, nil
}

// Undo reverts the most recent command of the current phase.
func (a *App) Undo(ctx context.Context) (auction.EntryKind, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entry, err := a.session.Undo()
	if err != nil {
		return "", err
	}

	var nominee string
	switch e := entry.(type) {
	case auction.Assigned:
		nominee = e.Nominee.Name
	case auction.Skipped:
		nominee = e.Nominee.Name
	default:
		if n, ok := a.session.CurrentNominee(); ok {
			nominee = n.Name
		}
	}

	a.afterCommand(ctx, events.TypeActionUndone, events.ActionUndonePayload{
		DraftID:  a.draftID.String(),
		Kind:     string(entry.Kind()),
		Nominee:  nominee,
		UndoneAt: a.now(),
	})

	log.Info().
		Str("draft_id", a.draftID.String()).
		Str("kind", string(entry.Kind())).
		Str("nominee", nominee).
		Msg("action undone")
	return entry.Kind(), nil
}

// AdvanceRound moves the draft to its next phase once the queue is done.
func (a *App) AdvanceRound(ctx context.Context) (auction.RoundResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.session.AdvanceRound()
	if err != nil {
		return auction.RoundResult{}, err
	}

	now := a.now()
	a.afterCommand(ctx, events.TypePhaseChanged, events.PhaseChangedPayload{
		DraftID:   a.draftID.String(),
		From:      res.From.String(),
		To:        res.To.String(),
		Offered:   res.Offered,
		ChangedAt: now,
	})
	if res.Placements != nil {
		a.emit(ctx, events.TypeLotteryCompleted, a.lotteryPayload(res.Placements, now))
	}
	if res.To.IsComplete() {
		a.emit(ctx, events.TypeDraftCompleted, a.completedPayload(now))
	}

	log.Info().
		Str("draft_id", a.draftID.String()).
		Str("from", res.From.String()).
		Str("phase", res.To.String()).
		Int("offered", res.Offered).
		Int("lottery_placements", len(res.Placements)).
		Msg("phase changed")
	return res, nil
}

// State returns a read-only view of the draft.
func (a *App) State(ctx context.Context) View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view()
}

// ExportCSV writes the team rosters as CSV.
func (a *App) ExportCSV(w io.Writer) error {
	a.mu.Lock()
	teams := a.orderedTeams()
	a.mu.Unlock()
	return export.WriteCSV(w, teams)
}

// ExportJSON writes the full draft state as JSON.
func (a *App) ExportJSON(w io.Writer) error {
	a.mu.Lock()
	doc := export.NewDocument(a.draftID.String(), a.clock.Now(), a.session.Snapshot())
	a.mu.Unlock()
	return export.WriteJSON(w, doc)
}

// afterCommand persists the new state, records the event and rearms the
// timer. Callers hold a.mu.
func (a *App) afterCommand(ctx context.Context, eventType events.Type, payload any) {
	a.save(ctx)
	a.emit(ctx, eventType, payload)
	a.restartTimer()
}

func (a *App) save(ctx context.Context) {
	rec := repository.Record{
		DraftID:   a.draftID,
		StartedAt: a.startedAt,
		SavedAt:   a.now(),
		State:     a.session.Snapshot(),
	}
	if err := a.store.Save(ctx, rec); err != nil {
		log.Error().Err(err).Str("draft_id", a.draftID.String()).Msg("failed to save snapshot")
	}
}

func (a *App) emit(ctx context.Context, eventType events.Type, payload any) {
	if a.events == nil {
		return
	}
	if err := a.events.InsertEvent(ctx, a.draftID, eventType, payload); err != nil {
		log.Error().Err(err).
			Str("draft_id", a.draftID.String()).
			Str("event_type", string(eventType)).
			Msg("failed to emit event")
	}
}

func (a *App) restartTimer() {
	n, ok := a.session.CurrentNominee()
	if !ok {
		a.timer.Stop()
		return
	}
	a.timer.Restart(n.Name)
}

func (a *App) onTimerExpired(exp timer.Expiry) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// a command may have restarted the countdown while this one waited on a.mu
	if !a.timer.Current(exp) {
		return
	}
	n, ok := a.session.CurrentNominee()
	if !ok || n.Name != exp.Label {
		return
	}
	payload := events.BidTimerExpiredPayload{
		DraftID:   a.draftID.String(),
		Nominee:   n.Name,
		ExpiredAt: exp.FiredAt.UTC(),
	}
	if bid, ok := a.session.LeadingBid(); ok {
		payload.LeadingTeamID = bid.TeamID
		payload.LeadingAmount = bid.Amount
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.emit(ctx, events.TypeBidTimerExpired, payload)

	log.Info().
		Str("draft_id", a.draftID.String()).
		Str("nominee", n.Name).
		Msg("bid timer expired")
}

func (a *App) startedPayload(resumed bool) events.DraftStartedPayload {
	return events.DraftStartedPayload{
		DraftID:   a.draftID.String(),
		StartedAt: a.startedAt,
		Teams:     len(a.session.Teams()),
		Nominees:  a.session.Remaining(),
		Resumed:   resumed,
		Phase:     a.session.Phase().String(),
	}
}

func (a *App) lotteryPayload(placements []auction.Placement, now time.Time) events.LotteryCompletedPayload {
	p := events.LotteryCompletedPayload{
		DraftID:     a.draftID.String(),
		Placements:  make([]events.LotteryPlacement, 0, len(placements)),
		FullyUnsold: []string{},
		CompletedAt: now,
	}
	for _, pl := range placements {
		lp := events.LotteryPlacement{Nominee: pl.Nominee}
		if pl.Placed() {
			team, _ := a.session.Team(pl.TeamID)
			lp.TeamID = team.ID
			lp.TeamName = team.Name
		} else {
			p.FullyUnsold = append(p.FullyUnsold, pl.Nominee)
		}
		p.Placements = append(p.Placements, lp)
	}
	return p
}

func (a *App) completedPayload(now time.Time) events.DraftCompletedPayload {
	total := 0
	for _, t := range a.session.Teams() {
		total += len(t.Roster)
	}
	return events.DraftCompletedPayload{
		DraftID:       a.draftID.String(),
		CompletedAt:   now,
		Duration:      now.Sub(a.startedAt).Round(time.Second).String(),
		TotalAssigned: total,
		FullyUnsold:   len(a.session.FullyUnsold()),
	}
}

func (a *App) now() time.Time {
	return a.clock.Now().UTC()
}
