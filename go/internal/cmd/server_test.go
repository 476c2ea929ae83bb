package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/draft"
	"github.com/mcdev12/lolauction/go/internal/models"
)

func newTestRouter(t *testing.T, maxReauctions int) http.Handler {
	t.Helper()
	settings := auction.DefaultSettings()
	settings.MaxReauctions = maxReauctions
	cfg := auction.Config{
		Settings: settings,
		Teams: []auction.TeamSpec{
			{Name: "Blue", Budget: 100, Capacity: 1},
			{Name: "Red", Budget: 100, Capacity: 1},
		},
		Nominees: []models.Nominee{
			{Name: "Zeus", Roles: []models.Role{models.RoleTop}},
			{Name: "Oner", Roles: []models.Role{models.RoleJungle}},
		},
	}
	app, err := draft.New(context.Background(), cfg, draft.Options{Rand: auction.NewRand(3)})
	if err != nil {
		t.Fatalf("draft.New: %v", err)
	}
	t.Cleanup(app.Close)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return newRouter(app, clock)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "bid below minimum", method: http.MethodPost, path: "/api/bids", body: `{"team_id":1,"amount":2}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "bid_below_minimum"},
		{name: "unknown team", method: http.MethodPost, path: "/api/bids", body: `{"team_id":9,"amount":5}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "unknown_team"},
		{name: "over budget", method: http.MethodPost, path: "/api/bids", body: `{"team_id":1,"amount":105}`, wantStatus: http.StatusUnprocessableEntity, wantCode: "insufficient_budget"},
		{name: "malformed body", method: http.MethodPost, path: "/api/bids", body: `{"team":1}`, wantStatus: http.StatusBadRequest},
		{name: "assign without bid", method: http.MethodPost, path: "/api/assign", wantStatus: http.StatusConflict, wantCode: "no_leading_bid"},
		{name: "undo empty", method: http.MethodPost, path: "/api/undo", wantStatus: http.StatusConflict, wantCode: "empty_history"},
		{name: "advance mid round", method: http.MethodPost, path: "/api/advance", wantStatus: http.StatusConflict, wantCode: "round_in_progress"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(t, 2)
			rec := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if got := decodeError(t, rec); got.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", got.Code, tc.wantCode)
			}
		})
	}
}

func TestServer_BidRejectionReportsMinimum(t *testing.T) {
	h := newTestRouter(t, 2)
	if rec := do(t, h, http.MethodPost, "/api/bids", `{"team_id":1,"amount":20}`); rec.Code != http.StatusOK {
		t.Fatalf("opening bid: %d %s", rec.Code, rec.Body.String())
	}
	rec := do(t, h, http.MethodPost, "/api/bids", `{"team_id":2,"amount":22}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Minimum != 25 {
		t.Fatalf("minimum = %d, want 25", got.Minimum)
	}
}

func TestServer_DraftFlow(t *testing.T) {
	h := newTestRouter(t, 0)

	rec := do(t, h, http.MethodPost, "/api/bids", `{"team_id":2,"amount":30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("bid: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		State draft.View `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State.LeadingBid == nil || resp.State.LeadingBid.TeamID != 2 || resp.State.MinimumNextBid != 35 {
		t.Fatalf("state after bid = %+v", resp.State)
	}

	for _, path := range []string{"/api/assign", "/api/skip", "/api/advance"} {
		if rec := do(t, h, http.MethodPost, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
	}

	rec = do(t, h, http.MethodGet, "/api/state", "")
	var view draft.View
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !view.Phase.IsComplete() {
		t.Fatalf("phase = %s, want complete", view.PhaseLabel)
	}
	if len(view.Lottery) != 1 || view.Lottery[0].TeamID != 1 {
		t.Fatalf("lottery = %+v, want Oner placed on Blue", view.Lottery)
	}

	rec = do(t, h, http.MethodPost, "/api/advance", "")
	if rec.Code != http.StatusConflict || decodeError(t, rec).Code != "draft_complete" {
		t.Fatalf("advance after completion: %d", rec.Code)
	}
}

func TestServer_Exports(t *testing.T) {
	h := newTestRouter(t, 2)

	rec := do(t, h, http.MethodGet, "/api/export/csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "auction_results_2026-03-01.csv") {
		t.Fatalf("csv disposition = %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "\ufeffTeam,Leader,Player") {
		t.Fatalf("csv body = %q", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/export/json", "")
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "auction_data_2026-03-01.json") {
		t.Fatalf("json disposition = %q", got)
	}
	var doc map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode json export: %v", err)
	}
	if _, ok := doc["state"]; !ok {
		t.Fatalf("json export missing state: %v", doc)
	}
}

func TestServer_Health(t *testing.T) {
	h := newTestRouter(t, 2)
	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}
