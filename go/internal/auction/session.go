package auction

import (
	"strings"

	"github.com/mcdev12/lolauction/go/internal/models"
)

// Session is the live state of one draft. It is not safe for concurrent use;
// callers serialize commands.
type Session struct {
	settings  Settings
	teams     []models.Team
	teamOrder []int

	phase  Phase
	queue  []models.Nominee
	cursor int
	// leading is nil until someone bids on the nominee at the cursor.
	leading *Bid

	unsold      []models.Nominee
	fullyUnsold []models.Nominee
	history     History
	lottery     []Placement

	rng Rand
}

// NewSession validates cfg and opens the main phase. A nil rng is replaced
// with a time-seeded source.
func NewSession(cfg Config, rng Rand) (*Session, error) {
	if rng == nil {
		rng = defaultRand()
	}
	if err := cfg.Settings.validate(); err != nil {
		return nil, err
	}
	if len(cfg.Teams) == 0 {
		return nil, configErr("teams", "at least one team is required")
	}

	leaders := make(map[string]bool)
	teamNames := make(map[string]bool)
	teams := make([]models.Team, 0, len(cfg.Teams))
	for i, spec := range cfg.Teams {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, configErr("teams", "team %d has no name", i+1)
		}
		if teamNames[name] {
			return nil, configErr("teams", "duplicate team name %q", name)
		}
		teamNames[name] = true
		if spec.Budget < 0 {
			return nil, configErr("teams", "team %q has negative budget %d", name, spec.Budget)
		}
		capacity := spec.Capacity
		if capacity == 0 {
			capacity = cfg.Settings.RosterSize
		}
		if capacity < 0 {
			return nil, configErr("teams", "team %q has negative capacity %d", name, capacity)
		}
		leader := strings.TrimSpace(spec.LeaderName)
		if leader != "" {
			if leaders[leader] {
				return nil, configErr("teams", "%q leads more than one team", leader)
			}
			leaders[leader] = true
		}
		teams = append(teams, models.Team{
			ID:              i + 1,
			Name:            name,
			LeaderName:      leader,
			BudgetRemaining: spec.Budget,
			Capacity:        capacity,
			Roster:          []models.Nominee{},
		})
	}

	seen := make(map[string]bool)
	pool := make([]models.Nominee, 0, len(cfg.Nominees))
	for i, n := range cfg.Nominees {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return nil, configErr("nominees", "nominee %d has no name", i+1)
		}
		if seen[name] {
			return nil, configErr("nominees", "duplicate nominee %q", name)
		}
		seen[name] = true
		if leaders[name] {
			continue
		}
		c := n.Clone()
		c.Name = name
		c.Cost = nil
		pool = append(pool, c)
	}

	order := make([]int, len(teams))
	for i, t := range teams {
		order[i] = t.ID
	}
	if cfg.RandomizeTeamOrder {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	s := &Session{
		settings:  cfg.Settings,
		teams:     teams,
		teamOrder: order,
		rng:       rng,
	}
	s.startPhase(MainPhase(), pool)
	return s, nil
}

func (s *Session) team(id int) *models.Team {
	for i := range s.teams {
		if s.teams[i].ID == id {
			return &s.teams[i]
		}
	}
	return nil
}

// CurrentNominee returns the nominee at the cursor, if any.
func (s *Session) CurrentNominee() (models.Nominee, bool) {
	if s.cursor >= len(s.queue) {
		return models.Nominee{}, false
	}
	return s.queue[s.cursor].Clone(), true
}

// LeadingBid returns the standing bid on the current nominee, if any.
func (s *Session) LeadingBid() (Bid, bool) {
	if s.leading == nil {
		return Bid{}, false
	}
	return *s.leading, true
}

// Teams returns a deep copy of every team in ID order.
func (s *Session) Teams() []models.Team {
	out := make([]models.Team, len(s.teams))
	for i, t := range s.teams {
		out[i] = t.Clone()
	}
	return out
}

// Team returns a copy of one team.
func (s *Session) Team(id int) (models.Team, bool) {
	t := s.team(id)
	if t == nil {
		return models.Team{}, false
	}
	return t.Clone(), true
}

// TeamOrder is the display order of team IDs chosen at draft start.
func (s *Session) TeamOrder() []int {
	out := make([]int, len(s.teamOrder))
	copy(out, s.teamOrder)
	return out
}

func (s *Session) Phase() Phase       { return s.phase }
func (s *Session) Settings() Settings { return s.settings }
func (s *Session) Cursor() int        { return s.cursor }

// Queue returns the current phase's ordered nominees, including those
// already passed.
func (s *Session) Queue() []models.Nominee { return models.CloneNominees(s.queue) }

// Remaining counts nominees from the cursor to the end of the queue.
func (s *Session) Remaining() int { return len(s.queue) - s.cursor }

// RoundOver reports whether the current phase has no nominee left to offer.
func (s *Session) RoundOver() bool { return s.cursor >= len(s.queue) }

// MinimumNextBid is the lowest amount that passes the bid-legality check.
func (s *Session) MinimumNextBid() int { return MinimumBid(s.settings, s.leading) }

// Unsold is the set of nominees skipped in the current phase.
func (s *Session) Unsold() []models.Nominee { return models.CloneNominees(s.unsold) }

// FullyUnsold lists nominees the lottery could not place.
func (s *Session) FullyUnsold() []models.Nominee { return models.CloneNominees(s.fullyUnsold) }

// History returns a copy of the current phase's undo stack.
func (s *Session) History() History { return s.history.clone() }

// Lottery returns every placement made by the random assignment phase.
func (s *Session) Lottery() []Placement {
	out := make([]Placement, len(s.lottery))
	copy(out, s.lottery)
	return out
}

// PlaceBid records teamID as leading on the current nominee with amount.
func (s *Session) PlaceBid(teamID, amount int) error {
	if s.cursor >= len(s.queue) {
		return ErrNoActiveNominee
	}
	nominee := s.queue[s.cursor]
	if err := ValidateBid(s.settings, s.team(teamID), teamID, nominee, s.leading, amount); err != nil {
		return err
	}
	s.history = append(s.history, BidPlaced{PreviousLeadingBid: s.leading.clone()})
	s.leading = &Bid{TeamID: teamID, Amount: amount}
	return nil
}

// Assign sells the current nominee to the leading bidder and advances the
// cursor. The returned entry describes the sale.
func (s *Session) Assign() (Assigned, error) {
	if s.leading == nil {
		return Assigned{}, ErrNoLeadingBid
	}
	if s.cursor >= len(s.queue) {
		return Assigned{}, ErrNoActiveNominee
	}
	t := s.team(s.leading.TeamID)
	if t == nil {
		return Assigned{}, &ValidationError{Code: CodeUnknownTeam, TeamID: s.leading.TeamID}
	}
	nominee := s.queue[s.cursor]
	entry := Assigned{
		TeamID:       t.ID,
		Amount:       s.leading.Amount,
		Nominee:      nominee.Clone(),
		CursorBefore: s.cursor,
	}
	t.BudgetRemaining -= entry.Amount
	t.Roster = append(t.Roster, nominee.WithCost(entry.Amount))
	s.history = append(s.history, entry)
	s.cursor++
	s.leading = nil
	return entry, nil
}

// Skip moves the current nominee to the unsold collector and advances the
// cursor, discarding any leading bid.
func (s *Session) Skip() (models.Nominee, error) {
	if s.cursor >= len(s.queue) {
		return models.Nominee{}, ErrNoActiveNominee
	}
	nominee := s.queue[s.cursor]
	s.history = append(s.history, Skipped{
		Nominee:            nominee.Clone(),
		CursorBefore:       s.cursor,
		PreviousLeadingBid: s.leading.clone(),
	})
	s.unsold = append(s.unsold, nominee.Clone())
	s.cursor++
	s.leading = nil
	return nominee.Clone(), nil
}

// Undo reverts the most recent command of the current phase and returns the
// entry that was reverted.
// Undoing a sale puts the winning bid back as the leading bid.
func (s *Session) Undo() (Entry, error) {
	if len(s.history) == 0 {
		return nil, ErrEmptyHistory
	}
	last := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]
	last.revert(s)
	return last, nil
}
