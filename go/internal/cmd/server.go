package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/draft"
	"github.com/mcdev12/lolauction/go/internal/draft/export"
)

// DraftAPI defines what the HTTP layer needs from the draft application
type DraftAPI interface {
	PlaceBid(ctx context.Context, teamID, amount int) error
	Assign(ctx context.Context) (auction.Assigned, error)
	Skip(ctx context.Context) (string, error)
	Undo(ctx context.Context) (auction.EntryKind, error)
	AdvanceRound(ctx context.Context) (auction.RoundResult, error)
	State(ctx context.Context) draft.View
	ExportCSV(w io.Writer) error
	ExportJSON(w io.Writer) error
}

func setupServer(cfg Config, api DraftAPI) *http.Server {
	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	handler := c.Handler(newRouter(api, clockwork.NewRealClock()))

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type handler struct {
	api   DraftAPI
	clock clockwork.Clock
}

func newRouter(api DraftAPI, clock clockwork.Clock) *http.ServeMux {
	h := &handler{api: api, clock: clock}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/state", h.state)
	mux.HandleFunc("POST /api/bids", h.placeBid)
	mux.HandleFunc("POST /api/assign", h.assign)
	mux.HandleFunc("POST /api/skip", h.skip)
	mux.HandleFunc("POST /api/undo", h.undo)
	mux.HandleFunc("POST /api/advance", h.advance)
	mux.HandleFunc("GET /api/export/csv", h.exportCSV)
	mux.HandleFunc("GET /api/export/json", h.exportJSON)
	setupHealthCheck(mux)
	return mux
}

type bidRequest struct {
	TeamID int `json:"team_id"`
	Amount int `json:"amount"`
}

type commandResponse struct {
	Result any        `json:"result,omitempty"`
	State  draft.View `json:"state"`
}

type roundResponse struct {
	From       string              `json:"from"`
	To         string              `json:"to"`
	Offered    int                 `json:"offered"`
	Placements []auction.Placement `json:"placements,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TeamID  int    `json:"team_id,omitempty"`
	Minimum int    `json:"minimum,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (h *handler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.api.State(r.Context()))
}

func (h *handler) placeBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid bid request: %v", err)})
		return
	}
	if err := h.api.PlaceBid(r.Context(), req.TeamID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, nil)
}

func (h *handler) assign(w http.ResponseWriter, r *http.Request) {
	sale, err := h.api.Assign(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, sale)
}

func (h *handler) skip(w http.ResponseWriter, r *http.Request) {
	name, err := h.api.Skip(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, map[string]string{"nominee": name})
}

func (h *handler) undo(w http.ResponseWriter, r *http.Request) {
	kind, err := h.api.Undo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, map[string]string{"undone": string(kind)})
}

func (h *handler) advance(w http.ResponseWriter, r *http.Request) {
	res, err := h.api.AdvanceRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, r, roundResponse{
		From:       res.From.String(),
		To:         res.To.String(),
		Offered:    res.Offered,
		Placements: res.Placements,
	})
}

func (h *handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename(h.clock.Now())))
	if err := h.api.ExportCSV(w); err != nil {
		log.Error().Err(err).Msg("failed to export csv")
	}
}

func (h *handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.JSONFilename(h.clock.Now())))
	if err := h.api.ExportJSON(w); err != nil {
		log.Error().Err(err).Msg("failed to export json")
	}
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, result any) {
	writeJSON(w, http.StatusOK, commandResponse{Result: result, State: h.api.State(r.Context())})
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *auction.ValidationError
		serr *auction.StateError
		cerr *auction.ConfigError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   verr.Error(),
			Code:    string(verr.Code),
			TeamID:  verr.TeamID,
			Minimum: verr.Minimum,
		})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: serr.Error(), Code: string(serr.Code)})
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: cerr.Error(), Field: cerr.Field})
	default:
		log.Error().Err(err).Msg("draft command failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
