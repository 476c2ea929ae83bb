package models

// Team is one bidding side of the auction.
type Team struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	LeaderName      string    `json:"leader_name,omitempty"`
	BudgetRemaining int       `json:"budget_remaining"`
	Capacity        int       `json:"capacity"`
	Roster          []Nominee `json:"roster"`
}

// HasLeader reports whether the team was formed around a leader.
func (t Team) HasLeader() bool {
	return t.LeaderName != ""
}

// LeaderOnRoster reports whether the leader already occupies a roster slot.
func (t Team) LeaderOnRoster() bool {
	if !t.HasLeader() {
		return false
	}
	for _, m := range t.Roster {
		if m.Name == t.LeaderName {
			return true
		}
	}
	return false
}

// EffectiveSize counts roster members plus the leader when the leader is not
// already listed on the roster.
func (t Team) EffectiveSize() int {
	n := len(t.Roster)
	if t.HasLeader() && !t.LeaderOnRoster() {
		n++
	}
	return n
}

// UsedRoles is the union of the role sets of every current roster member.
func (t Team) UsedRoles() map[Role]bool {
	used := make(map[Role]bool)
	for _, m := range t.Roster {
		for _, r := range m.Roles {
			used[r] = true
		}
	}
	return used
}

// Clone returns a deep copy of t.
func (t Team) Clone() Team {
	c := t
	c.Roster = CloneNominees(t.Roster)
	if c.Roster == nil {
		c.Roster = []Nominee{}
	}
	return c
}
