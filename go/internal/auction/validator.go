package auction

import (
	"fmt"
	"math"

	"github.com/mcdev12/lolauction/go/internal/models"
)

// Bid is a team's offer on the current nominee.
type Bid struct {
	TeamID int `json:"team_id"`
	Amount int `json:"amount"`
}

func (b *Bid) clone() *Bid {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// MinimumBid is the opening minimum with no leading bid, otherwise the
// leading amount plus one step, saturating at math.MaxInt.
func MinimumBid(s Settings, leading *Bid) int {
	if leading == nil {
		return s.OpeningMinimum
	}
	if leading.Amount > math.MaxInt-s.BidStep {
		return math.MaxInt
	}
	return leading.Amount + s.BidStep
}

// HasCapacity reports whether the team can take one more nominee.
func HasCapacity(t models.Team) bool {
	return t.EffectiveSize() < t.Capacity
}

// RoleConflict reports whether every role of the nominee is already covered
// by the team's roster. A nominee with no roles never conflicts.
func RoleConflict(n models.Nominee, t models.Team) bool {
	if len(n.Roles) == 0 {
		return false
	}
	used := t.UsedRoles()
	for _, r := range n.Roles {
		if !used[r] {
			return false
		}
	}
	return true
}

// ValidateBid runs the bid checks in order: team existence, capacity, budget,
// bid legality, then role conflict. team is nil when teamID is unknown.
func ValidateBid(s Settings, team *models.Team, teamID int, nominee models.Nominee, leading *Bid, amount int) error {
	if team == nil {
		return &ValidationError{Code: CodeUnknownTeam, TeamID: teamID, Detail: fmt.Sprintf("team %d", teamID)}
	}
	if !HasCapacity(*team) {
		return &ValidationError{
			Code:   CodeRosterFull,
			TeamID: teamID,
			Detail: fmt.Sprintf("%s has %d of %d slots filled", team.Name, team.EffectiveSize(), team.Capacity),
		}
	}
	if amount > team.BudgetRemaining {
		return &ValidationError{
			Code:   CodeInsufficientBudget,
			TeamID: teamID,
			Detail: fmt.Sprintf("%s has %d left, bid was %d", team.Name, team.BudgetRemaining, amount),
		}
	}
	if err := checkBidLegality(s, teamID, leading, amount); err != nil {
		return err
	}
	if s.EnforceRoles && RoleConflict(nominee, *team) {
		return &ValidationError{
			Code:   CodeRoleConflict,
			TeamID: teamID,
			Detail: fmt.Sprintf("%s already covers %v", team.Name, nominee.Roles),
		}
	}
	return nil
}

func checkBidLegality(s Settings, teamID int, leading *Bid, amount int) error {
	minimum := MinimumBid(s, leading)
	below := amount < s.OpeningMinimum
	if leading != nil {
		// amounts may sit near math.MaxInt, so never add to them
		below = amount <= leading.Amount || amount-leading.Amount < s.BidStep
	}
	if below {
		return &ValidationError{
			Code:    CodeBidBelowMinimum,
			TeamID:  teamID,
			Minimum: minimum,
			Detail:  fmt.Sprintf("got %d, need at least %d", amount, minimum),
		}
	}
	if leading != nil && (amount-leading.Amount)%s.BidStep != 0 {
		return &ValidationError{
			Code:    CodeBidNotAlignedToStep,
			TeamID:  teamID,
			Minimum: minimum,
			Detail:  fmt.Sprintf("raise over %d must be a multiple of %d", leading.Amount, s.BidStep),
		}
	}
	return nil
}
