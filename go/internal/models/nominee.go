package models

import "slices"

// Nominee is a candidate offered to the teams during the auction.
type Nominee struct {
	Name        string `json:"name"`
	Roles       []Role `json:"roles"`
	Tier        Tier   `json:"tier,omitempty"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`

	// Cost is set when the nominee joins a roster; nil while in the pool.
	Cost *int `json:"cost,omitempty"`
}

// PrimaryRole returns the first listed role.
func (n Nominee) PrimaryRole() (Role, bool) {
	if len(n.Roles) == 0 {
		return "", false
	}
	return n.Roles[0], true
}

// HasRole reports whether r is one of the nominee's roles.
func (n Nominee) HasRole(r Role) bool {
	return slices.Contains(n.Roles, r)
}

// WithCost returns a copy of n tagged with the price it was bought for.
func (n Nominee) WithCost(cost int) Nominee {
	c := n.Clone()
	c.Cost = &cost
	return c
}

// Clone returns a deep copy of n.
func (n Nominee) Clone() Nominee {
	c := n
	c.Roles = slices.Clone(n.Roles)
	if n.Cost != nil {
		cost := *n.Cost
		c.Cost = &cost
	}
	return c
}

// CloneNominees deep copies a nominee slice. A nil slice stays nil.
func CloneNominees(in []Nominee) []Nominee {
	if in == nil {
		return nil
	}
	out := make([]Nominee, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}
