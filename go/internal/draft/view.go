package draft

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/models"
)

// View is the read model served to clients.
type View struct {
	DraftID        uuid.UUID           `json:"draft_id"`
	StartedAt      time.Time           `json:"started_at"`
	Phase          auction.Phase       `json:"phase"`
	PhaseLabel     string              `json:"phase_label"`
	Settings       auction.Settings    `json:"settings"`
	Teams          []models.Team       `json:"teams"`
	Current        *models.Nominee     `json:"current,omitempty"`
	LeadingBid     *auction.Bid        `json:"leading_bid,omitempty"`
	MinimumNextBid int                 `json:"minimum_next_bid"`
	Remaining      int                 `json:"remaining"`
	RoundOver      bool                `json:"round_over"`
	Upcoming       []models.Nominee    `json:"upcoming"`
	Unsold         []models.Nominee    `json:"unsold"`
	FullyUnsold    []models.Nominee    `json:"fully_unsold"`
	Lottery        []auction.Placement `json:"lottery,omitempty"`
	CanUndo        bool                `json:"can_undo"`
	BidDeadline    *time.Time          `json:"bid_deadline,omitempty"`
}

func (a *App) view() View {
	s := a.session
	v := View{
		DraftID:        a.draftID,
		StartedAt:      a.startedAt,
		Phase:          s.Phase(),
		PhaseLabel:     s.Phase().String(),
		Settings:       s.Settings(),
		Teams:          a.orderedTeams(),
		MinimumNextBid: s.MinimumNextBid(),
		Remaining:      s.Remaining(),
		RoundOver:      s.RoundOver(),
		Upcoming:       []models.Nominee{},
		Unsold:         s.Unsold(),
		FullyUnsold:    s.FullyUnsold(),
		Lottery:        s.Lottery(),
		CanUndo:        len(s.History()) > 0,
	}
	if n, ok := s.CurrentNominee(); ok {
		v.Current = &n
		queue := s.Queue()
		v.Upcoming = queue[s.Cursor()+1:]
	}
	if bid, ok := s.LeadingBid(); ok {
		v.LeadingBid = &bid
	}
	if d, ok := a.timer.Deadline(); ok {
		v.BidDeadline = &d
	}
	return v
}

// orderedTeams lists teams in the display order fixed at draft start.
func (a *App) orderedTeams() []models.Team {
	out := make([]models.Team, 0, len(a.session.TeamOrder()))
	for _, id := range a.session.TeamOrder() {
		if t, ok := a.session.Team(id); ok {
			out = append(out, t)
		}
	}
	return out
}
