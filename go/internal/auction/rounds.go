package auction

import "github.com/mcdev12/lolauction/go/internal/models"

// Placement is one lottery outcome. TeamID is zero when no team could take
// the nominee.
type Placement struct {
	Nominee string `json:"nominee"`
	TeamID  int    `json:"team_id,omitempty"`
}

// Placed reports whether the nominee landed on a roster.
func (p Placement) Placed() bool { return p.TeamID != 0 }

// RoundResult describes a phase transition.
type RoundResult struct {
	From Phase
	To   Phase
	// Offered is the queue length of the new phase.
	Offered int
	// Placements is set when the transition ran the lottery.
	Placements []Placement
}

func (s *Session) startPhase(p Phase, nominees []models.Nominee) {
	queue := models.CloneNominees(nominees)
	if queue == nil {
		queue = []models.Nominee{}
	}
	if s.settings.RandomizeOrder {
		s.rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	}
	s.phase = p
	s.queue = queue
	s.cursor = 0
	s.leading = nil
	s.unsold = []models.Nominee{}
	s.history = History{}
}

// AdvanceRound moves to the next phase once every nominee in the current
// queue has been assigned or skipped. An empty unsold collector ends the
// draft. Otherwise the unsold nominees are offered again until
// MaxReauctions re-offer rounds have run, after which the lottery places
// what is left and the draft completes.
func (s *Session) AdvanceRound() (RoundResult, error) {
	if s.phase.IsComplete() {
		return RoundResult{}, ErrDraftComplete
	}
	if s.cursor < len(s.queue) {
		return RoundResult{}, ErrRoundInProgress
	}

	res := RoundResult{From: s.phase}
	unsold := s.unsold
	switch {
	case len(unsold) == 0:
		s.startPhase(CompletePhase(), nil)
	case s.phase.Round < s.settings.MaxReauctions:
		s.startPhase(ReauctionPhase(s.phase.Round+1), unsold)
		res.Offered = len(s.queue)
	default:
		s.phase = RandomAssignmentPhase()
		res.Placements = s.runLottery(unsold)
		s.startPhase(CompletePhase(), nil)
	}
	res.To = s.phase
	return res, nil
}

// runLottery hands each nominee to a uniformly chosen team that has room and,
// when roles are enforced, no role conflict. Budgets are not consulted and
// placed nominees cost nothing.
func (s *Session) runLottery(nominees []models.Nominee) []Placement {
	placements := make([]Placement, 0, len(nominees))
	for _, n := range nominees {
		var eligible []int
		for i := range s.teams {
			t := s.teams[i]
			if !HasCapacity(t) {
				continue
			}
			if s.settings.EnforceRoles && RoleConflict(n, t) {
				continue
			}
			eligible = append(eligible, i)
		}
		if len(eligible) == 0 {
			s.fullyUnsold = append(s.fullyUnsold, n.Clone())
			placements = append(placements, Placement{Nominee: n.Name})
			continue
		}
		t := &s.teams[eligible[s.rng.Intn(len(eligible))]]
		t.Roster = append(t.Roster, n.WithCost(0))
		placements = append(placements, Placement{Nominee: n.Name, TeamID: t.ID})
	}
	s.lottery = append(s.lottery, placements...)
	return placements
}
