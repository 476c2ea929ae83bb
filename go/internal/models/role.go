package models

import (
	"fmt"
	"strings"
)

// Role is a lane a nominee can play.
type Role string

const (
	RoleTop     Role = "Top"
	RoleJungle  Role = "Jungle"
	RoleMid     Role = "Mid"
	RoleADC     Role = "ADC"
	RoleSupport Role = "Support"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleTop, RoleJungle, RoleMid, RoleADC, RoleSupport}

// ParseRole matches s against the role enumeration, ignoring case.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Tier is a rank label. Tiers are ordered from Iron (lowest) to Challenger.
type Tier string

const (
	TierIron        Tier = "Iron"
	TierBronze      Tier = "Bronze"
	TierSilver      Tier = "Silver"
	TierGold        Tier = "Gold"
	TierPlatinum    Tier = "Platinum"
	TierEmerald     Tier = "Emerald"
	TierDiamond     Tier = "Diamond"
	TierMaster      Tier = "Master"
	TierGrandmaster Tier = "Grandmaster"
	TierChallenger  Tier = "Challenger"
)

// Tiers lists every tier in ascending order.
var Tiers = []Tier{
	TierIron, TierBronze, TierSilver, TierGold, TierPlatinum,
	TierEmerald, TierDiamond, TierMaster, TierGrandmaster, TierChallenger,
}

// ParseTier matches s against the tier enumeration, ignoring case.
// An empty string is the unranked tier.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, t := range Tiers {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Rank returns the position of t in Tiers, or -1 when unranked.
func (t Tier) Rank() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// NormalizeRoles builds the canonical role set from the roles list and the
// legacy single role field. Order of first appearance is kept so the first
// role stays primary; duplicates are dropped.
func NormalizeRoles(roles []string, legacy string) ([]Role, error) {
	raw := roles
	if len(raw) == 0 && strings.TrimSpace(legacy) != "" {
		raw = []string{legacy}
	}

	out := make([]Role, 0, len(raw))
	seen := make(map[Role]bool, len(raw))
	for _, s := range raw {
		r, err := ParseRole(s)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, nil
}
