package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/draft/events"
	"github.com/mcdev12/lolauction/go/internal/draft/repository"
	"github.com/mcdev12/lolauction/go/internal/models"
)

type memStore struct {
	mu   sync.Mutex
	recs []repository.Record
	err  error
}

func (s *memStore) Save(_ context.Context, rec repository.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memStore) Load(context.Context) (repository.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recs) == 0 {
		return repository.Record{}, repository.ErrNoSnapshot
	}
	return s.recs[len(s.recs)-1], nil
}

func (s *memStore) saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recs)
}

type sentEvent struct {
	Type    events.Type
	Payload any
}

type recordingEvents struct {
	mu     sync.Mutex
	sent   []sentEvent
	err    error
	notify chan sentEvent
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{notify: make(chan sentEvent, 32)}
}

func (r *recordingEvents) InsertEvent(_ context.Context, _ uuid.UUID, eventType events.Type, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	ev := sentEvent{Type: eventType, Payload: payload}
	r.sent = append(r.sent, ev)
	select {
	case r.notify <- ev:
	default:
	}
	return nil
}

func (r *recordingEvents) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.sent))
	for i, ev := range r.sent {
		out[i] = ev.Type
	}
	return out
}

func (r *recordingEvents) last() sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

func testConfig(maxReauctions int) auction.Config {
	settings := auction.DefaultSettings()
	settings.MaxReauctions = maxReauctions
	return auction.Config{
		Settings: settings,
		Teams: []auction.TeamSpec{
			{Name: "Blue", Budget: 1000},
			{Name: "Red", Budget: 1000},
		},
		Nominees: []models.Nominee{
			{Name: "Zeus", Roles: []models.Role{models.RoleTop}},
			{Name: "Oner", Roles: []models.Role{models.RoleJungle}},
		},
	}
}

type harness struct {
	app    *App
	store  *memStore
	events *recordingEvents
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T, cfg auction.Config, bidTimer time.Duration) harness {
	t.Helper()
	h := harness{
		store:  &memStore{},
		events: newRecordingEvents(),
		clock:  clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)),
	}
	app, err := New(context.Background(), cfg, h.options(bidTimer))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(app.Close)
	h.app = app
	return h
}

func (h harness) options(bidTimer time.Duration) Options {
	return Options{
		Store:    h.store,
		Events:   h.events,
		Clock:    h.clock,
		Rand:     auction.NewRand(7),
		BidTimer: bidTimer,
	}
}

func TestApp_CommandsEmitEventsAndSnapshots(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig(0), 0)

	if err := h.app.PlaceBid(ctx, 1, 10); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	sale, err := h.app.Assign(ctx)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if sale.Nominee.Name != "Zeus" || sale.TeamID != 1 || sale.Amount != 10 {
		t.Fatalf("sale = %+v", sale)
	}
	if name, err := h.app.Skip(ctx); err != nil || name != "Oner" {
		t.Fatalf("Skip = %q, %v", name, err)
	}
	res, err := h.app.AdvanceRound(ctx)
	if err != nil {
		t.Fatalf("AdvanceRound: %v", err)
	}
	if !res.To.IsComplete() || len(res.Placements) != 1 {
		t.Fatalf("round result = %+v", res)
	}

	want := []events.Type{
		events.TypeDraftStarted,
		events.TypeBidPlaced,
		events.TypeNomineeAssigned,
		events.TypeNomineeSkipped,
		events.TypePhaseChanged,
		events.TypeLotteryCompleted,
		events.TypeDraftCompleted,
	}
	if diff := cmp.Diff(want, h.events.types()); diff != "" {
		t.Fatalf("events (-want +got):\n%s", diff)
	}

	done, ok := h.events.last().Payload.(events.DraftCompletedPayload)
	if !ok {
		t.Fatalf("last payload is %T", h.events.last().Payload)
	}
	if done.TotalAssigned != 2 || done.FullyUnsold != 0 {
		t.Fatalf("completed payload = %+v", done)
	}

	if got := h.store.saves(); got != 5 {
		t.Fatalf("saves = %d, want 5", got)
	}
	rec, err := h.store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !rec.State.Phase.IsComplete() || rec.DraftID != h.app.DraftID() {
		t.Fatalf("last record phase %s, draft %s", rec.State.Phase, rec.DraftID)
	}
}

func TestApp_RejectedCommandHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig(2), 0)
	saves, sent := h.store.saves(), len(h.events.types())

	err := h.app.PlaceBid(ctx, 1, 3)
	if !errors.Is(err, auction.ErrBidBelowMinimum) {
		t.Fatalf("PlaceBid err = %v, want ErrBidBelowMinimum", err)
	}
	if _, err := h.app.Assign(ctx); !errors.Is(err, auction.ErrNoLeadingBid) {
		t.Fatalf("Assign err = %v, want ErrNoLeadingBid", err)
	}
	if _, err := h.app.AdvanceRound(ctx); !errors.Is(err, auction.ErrRoundInProgress) {
		t.Fatalf("AdvanceRound err = %v, want ErrRoundInProgress", err)
	}
	if _, err := h.app.Undo(ctx); !errors.Is(err, auction.ErrEmptyHistory) {
		t.Fatalf("Undo err = %v, want ErrEmptyHistory", err)
	}

	if h.store.saves() != saves || len(h.events.types()) != sent {
		t.Fatal("rejected commands saved or emitted")
	}
}

func TestApp_PersistenceFailuresDoNotFailCommands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig(2), 0)
	h.store.err = errors.New("disk full")
	h.events.err = errors.New("outbox down")

	if err := h.app.PlaceBid(ctx, 2, 5); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if _, err := h.app.Assign(ctx); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	v := h.app.State(ctx)
	if len(v.Teams[1].Roster) != 1 || v.Teams[1].BudgetRemaining != 995 {
		t.Fatalf("red team = %+v", v.Teams[1])
	}
}

func TestApp_UndoEmitsKind(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig(2), 0)

	if err := h.app.PlaceBid(ctx, 1, 20); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	kind, err := h.app.Undo(ctx)
	if err != nil || kind != auction.EntryBidPlaced {
		t.Fatalf("Undo = %q, %v", kind, err)
	}
	got, ok := h.events.last().Payload.(events.ActionUndonePayload)
	if !ok {
		t.Fatalf("last payload is %T", h.events.last().Payload)
	}
	if got.Kind != string(auction.EntryBidPlaced) || got.Nominee != "Zeus" {
		t.Fatalf("undo payload = %+v", got)
	}
	if v := h.app.State(ctx); v.LeadingBid != nil || v.CanUndo {
		t.Fatalf("state after undo: leading %+v, can undo %v", v.LeadingBid, v.CanUndo)
	}
}

func TestApp_ResumeRestoresState(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig(2), 0)

	if err := h.app.PlaceBid(ctx, 1, 40); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if _, err := h.app.Assign(ctx); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := h.app.PlaceBid(ctx, 2, 15); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	before := h.app.State(ctx)

	resumed, err := Resume(ctx, h.options(0))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	defer resumed.Close()

	after := resumed.State(ctx)
	if diff := cmp.Diff(before, after, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("resumed state (-before +after):\n%s", diff)
	}

	started, ok := h.events.last().Payload.(events.DraftStartedPayload)
	if !ok || !started.Resumed {
		t.Fatalf("last event = %+v", h.events.last())
	}

	if _, err := resumed.Undo(ctx); err != nil {
		t.Fatalf("Undo after resume: %v", err)
	}
	if _, err := resumed.Undo(ctx); err != nil {
		t.Fatalf("second Undo after resume: %v", err)
	}
	v := resumed.State(ctx)
	if v.Teams[0].BudgetRemaining != 1000 || v.Current == nil || v.Current.Name != "Zeus" {
		t.Fatalf("undo across resume: blue %+v, current %+v", v.Teams[0], v.Current)
	}
}

func TestOpen_StartsFreshWithoutSnapshot(t *testing.T) {
	store := &memStore{}
	app, err := Open(context.Background(), testConfig(2), Options{Store: store, Rand: auction.NewRand(1)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer app.Close()
	if store.saves() != 1 {
		t.Fatalf("saves = %d, want 1", store.saves())
	}

	if _, err := Resume(context.Background(), Options{}); !errors.Is(err, repository.ErrNoSnapshot) {
		t.Fatalf("Resume without store err = %v", err)
	}
}

func TestApp_BidTimerEmitsExpiry(t *testing.T) {
	h := newHarness(t, testConfig(2), 30*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("timer never armed: %v", err)
	}
	if v := h.app.State(ctx); v.BidDeadline == nil || !v.BidDeadline.Equal(h.clock.Now().Add(30*time.Second)) {
		t.Fatalf("bid deadline = %v", v.BidDeadline)
	}

	h.clock.Advance(30 * time.Second)
	for {
		select {
		case ev := <-h.events.notify:
			if ev.Type != events.TypeBidTimerExpired {
				continue
			}
			p := ev.Payload.(events.BidTimerExpiredPayload)
			if p.Nominee != "Zeus" || p.LeadingTeamID != 0 {
				t.Fatalf("expiry payload = %+v", p)
			}
			if v := h.app.State(context.Background()); v.Current == nil || v.Current.Name != "Zeus" {
				t.Fatal("timer expiry changed the draft")
			}
			return
		case <-ctx.Done():
			t.Fatal("no BidTimerExpired event")
		}
	}
}

func TestApp_BidTimerDropsExpiryOvertakenByBid(t *testing.T) {
	h := newHarness(t, testConfig(2), 30*time.Second)
	start := h.clock.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("timer never armed: %v", err)
	}

	// The countdown fires while a bid holds the lock, so its handler runs
	// only after the bid has restarted the countdown for the same nominee.
	h.app.mu.Lock()
	h.clock.Advance(30 * time.Second)
	for {
		if _, running := h.app.timer.Deadline(); !running {
			break
		}
		if ctx.Err() != nil {
			h.app.mu.Unlock()
			t.Fatal("countdown did not fire")
		}
		time.Sleep(time.Millisecond)
	}
	if err := h.app.session.PlaceBid(1, auction.DefaultOpeningMinimum); err != nil {
		h.app.mu.Unlock()
		t.Fatalf("PlaceBid: %v", err)
	}
	h.app.restartTimer()
	h.app.mu.Unlock()

	if err := h.clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("timer never re-armed: %v", err)
	}
	h.clock.Advance(30 * time.Second)
	for {
		select {
		case ev := <-h.events.notify:
			if ev.Type != events.TypeBidTimerExpired {
				continue
			}
			p := ev.Payload.(events.BidTimerExpiredPayload)
			if want := start.Add(60 * time.Second).UTC(); !p.ExpiredAt.Equal(want) {
				t.Fatalf("expired at %v, want %v", p.ExpiredAt, want)
			}
			if p.LeadingTeamID != 1 || p.LeadingAmount != auction.DefaultOpeningMinimum {
				t.Fatalf("expiry payload = %+v", p)
			}
			return
		case <-ctx.Done():
			t.Fatal("no BidTimerExpired event")
		}
	}
}

func TestApp_ViewAndExports(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, testConfig(2), 0)

	v := h.app.State(ctx)
	if v.Current == nil || v.Current.Name != "Zeus" || len(v.Upcoming) != 1 || v.Remaining != 2 {
		t.Fatalf("initial view = %+v", v)
	}
	if v.MinimumNextBid != auction.DefaultOpeningMinimum || v.PhaseLabel != "main" {
		t.Fatalf("minimum %d, phase %q", v.MinimumNextBid, v.PhaseLabel)
	}

	if err := h.app.PlaceBid(ctx, 1, 25); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if _, err := h.app.Assign(ctx); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	var csvBuf bytes.Buffer
	if err := h.app.ExportCSV(&csvBuf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.Contains(csvBuf.String(), "Blue,,Zeus,Top,,,,25,975") {
		t.Fatalf("csv missing sale row:\n%s", csvBuf.String())
	}

	var jsonBuf bytes.Buffer
	if err := h.app.ExportJSON(&jsonBuf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var doc struct {
		DraftID string `json:"draft_id"`
		State   struct {
			Cursor int `json:"cursor"`
		} `json:"state"`
	}
	if err := json.Unmarshal(jsonBuf.Bytes(), &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.DraftID != h.app.DraftID().String() || doc.State.Cursor != 1 {
		t.Fatalf("export doc = %+v", doc)
	}
}
