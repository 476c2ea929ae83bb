package auction

import (
	"github.com/mcdev12/lolauction/go/internal/models"
)

// Snapshot is the serializable form of a Session. Restore(s.Snapshot())
// yields a session that behaves identically apart from the random source.
type Snapshot struct {
	Settings        Settings         `json:"settings"`
	Teams           []models.Team    `json:"teams"`
	TeamOrder       []int            `json:"team_order"`
	Phase           Phase            `json:"phase"`
	Queue           []models.Nominee `json:"queue"`
	Cursor          int              `json:"cursor"`
	LeadingBid      *Bid             `json:"leading_bid"`
	UnsoldThisPhase []models.Nominee `json:"unsold_this_phase"`
	FullyUnsold     []models.Nominee `json:"fully_unsold"`
	History         History          `json:"history"`
	Lottery         []Placement      `json:"lottery,omitempty"`
}

// Snapshot captures the full session state as a deep copy.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Settings:        s.settings,
		Teams:           s.Teams(),
		TeamOrder:       s.TeamOrder(),
		Phase:           s.phase,
		Queue:           s.Queue(),
		Cursor:          s.cursor,
		LeadingBid:      s.leading.clone(),
		UnsoldThisPhase: s.Unsold(),
		FullyUnsold:     s.FullyUnsold(),
		History:         s.History(),
		Lottery:         s.Lottery(),
	}
}

// Restore rebuilds a session from a snapshot after checking it is internally
// consistent. A nil rng is replaced with a time-seeded source.
func Restore(snap Snapshot, rng Rand) (*Session, error) {
	if rng == nil {
		rng = defaultRand()
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	s := &Session{
		settings:    snap.Settings,
		teams:       make([]models.Team, len(snap.Teams)),
		teamOrder:   append([]int(nil), snap.TeamOrder...),
		phase:       snap.Phase,
		queue:       models.CloneNominees(snap.Queue),
		cursor:      snap.Cursor,
		leading:     snap.LeadingBid.clone(),
		unsold:      models.CloneNominees(snap.UnsoldThisPhase),
		fullyUnsold: models.CloneNominees(snap.FullyUnsold),
		history:     snap.History.clone(),
		lottery:     append([]Placement(nil), snap.Lottery...),
		rng:         rng,
	}
	for i, t := range snap.Teams {
		s.teams[i] = t.Clone()
	}
	if s.queue == nil {
		s.queue = []models.Nominee{}
	}
	if s.unsold == nil {
		s.unsold = []models.Nominee{}
	}
	if s.history == nil {
		s.history = History{}
	}
	if len(s.teamOrder) == 0 {
		for _, t := range s.teams {
			s.teamOrder = append(s.teamOrder, t.ID)
		}
	}
	return s, nil
}

func (snap Snapshot) validate() error {
	if err := snap.Settings.validate(); err != nil {
		return err
	}
	if len(snap.Teams) == 0 {
		return configErr("teams", "snapshot has no teams")
	}
	if !snap.Phase.valid() || snap.Phase.Kind == PhaseRandomAssignment {
		return configErr("phase", "unexpected phase %s", snap.Phase)
	}

	teams := make(map[int]models.Team, len(snap.Teams))
	names := make(map[string]string)
	claim := func(name, where string) error {
		if prev, ok := names[name]; ok {
			return configErr("snapshot", "nominee %q appears in both %s and %s", name, prev, where)
		}
		names[name] = where
		return nil
	}
	for _, t := range snap.Teams {
		if _, dup := teams[t.ID]; dup {
			return configErr("teams", "duplicate team id %d", t.ID)
		}
		if t.BudgetRemaining < 0 {
			return configErr("teams", "team %d has negative budget", t.ID)
		}
		if t.EffectiveSize() > t.Capacity {
			return configErr("teams", "team %d is over capacity", t.ID)
		}
		teams[t.ID] = t
		for _, m := range t.Roster {
			if err := claim(m.Name, "roster of team "+t.Name); err != nil {
				return err
			}
		}
	}
	for _, id := range snap.TeamOrder {
		if _, ok := teams[id]; !ok {
			return configErr("team_order", "unknown team id %d", id)
		}
	}

	if snap.Cursor < 0 || snap.Cursor > len(snap.Queue) {
		return configErr("cursor", "%d outside queue of %d", snap.Cursor, len(snap.Queue))
	}
	for _, n := range snap.Queue[snap.Cursor:] {
		if err := claim(n.Name, "queue"); err != nil {
			return err
		}
	}
	for _, n := range snap.UnsoldThisPhase {
		if err := claim(n.Name, "unsold"); err != nil {
			return err
		}
	}
	for _, n := range snap.FullyUnsold {
		if err := claim(n.Name, "fully unsold"); err != nil {
			return err
		}
	}

	if snap.LeadingBid != nil {
		if snap.Cursor >= len(snap.Queue) {
			return configErr("leading_bid", "set with no nominee at the cursor")
		}
		if _, ok := teams[snap.LeadingBid.TeamID]; !ok {
			return configErr("leading_bid", "unknown team id %d", snap.LeadingBid.TeamID)
		}
	}

	assigned := make(map[int]int)
	skipped := 0
	for i, e := range snap.History {
		switch v := e.(type) {
		case Assigned:
			if _, ok := teams[v.TeamID]; !ok {
				return configErr("history", "entry %d names unknown team %d", i, v.TeamID)
			}
			assigned[v.TeamID]++
			if v.CursorBefore < 0 || v.CursorBefore >= len(snap.Queue) {
				return configErr("history", "entry %d has cursor %d outside queue", i, v.CursorBefore)
			}
		case Skipped:
			skipped++
			if v.CursorBefore < 0 || v.CursorBefore >= len(snap.Queue) {
				return configErr("history", "entry %d has cursor %d outside queue", i, v.CursorBefore)
			}
		case BidPlaced:
		default:
			return configErr("history", "entry %d has unknown type", i)
		}
	}
	for id, n := range assigned {
		if len(teams[id].Roster) < n {
			return configErr("history", "team %d has fewer roster entries than recorded sales", id)
		}
	}
	if skipped > len(snap.UnsoldThisPhase) {
		return configErr("history", "more skips recorded than unsold nominees")
	}
	return nil
}
