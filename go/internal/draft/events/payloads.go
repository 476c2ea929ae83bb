package events

import (
	"time"
)

// Type names an auction event. It doubles as the last token of the NATS
// subject the relay publishes to.
type Type string

const (
	TypeDraftStarted     Type = "DraftStarted"
	TypeBidPlaced        Type = "BidPlaced"
	TypeNomineeAssigned  Type = "NomineeAssigned"
	TypeNomineeSkipped   Type = "NomineeSkipped"
	TypeActionUndone     Type = "ActionUndone"
	TypePhaseChanged     Type = "PhaseChanged"
	TypeLotteryCompleted Type = "LotteryCompleted"
	TypeDraftCompleted   Type = "DraftCompleted"
	TypeBidTimerExpired  Type = "BidTimerExpired"
)

var known = map[Type]bool{
	TypeDraftStarted:     true,
	TypeBidPlaced:        true,
	TypeNomineeAssigned:  true,
	TypeNomineeSkipped:   true,
	TypeActionUndone:     true,
	TypePhaseChanged:     true,
	TypeLotteryCompleted: true,
	TypeDraftCompleted:   true,
	TypeBidTimerExpired:  true,
}

// Valid reports whether t is one of the declared event types.
func (t Type) Valid() bool { return known[t] }

// Event payload types shared between the draft app and the outbox relay

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID   string    `json:"draft_id"`
	StartedAt time.Time `json:"started_at"`
	Teams     int       `json:"teams"`
	Nominees  int       `json:"nominees"`
	Resumed   bool      `json:"resumed"`
	Phase     string    `json:"phase"`
}

// BidPlacedPayload is the payload for a BidPlaced event
type BidPlacedPayload struct {
	DraftID        string    `json:"draft_id"`
	Nominee        string    `json:"nominee"`
	TeamID         int       `json:"team_id"`
	TeamName       string    `json:"team_name"`
	Amount         int       `json:"amount"`
	MinimumNextBid int       `json:"minimum_next_bid"`
	PlacedAt       time.Time `json:"placed_at"`
}

// NomineeAssignedPayload is the payload for a NomineeAssigned event
type NomineeAssignedPayload struct {
	DraftID         string    `json:"draft_id"`
	Nominee         string    `json:"nominee"`
	TeamID          int       `json:"team_id"`
	TeamName        string    `json:"team_name"`
	Amount          int       `json:"amount"`
	BudgetRemaining int       `json:"budget_remaining"`
	Phase           string    `json:"phase"`
	AssignedAt      time.Time `json:"assigned_at"`
}

// NomineeSkippedPayload is the payload for a NomineeSkipped event
type NomineeSkippedPayload struct {
	DraftID   string    `json:"draft_id"`
	Nominee   string    `json:"nominee"`
	Phase     string    `json:"phase"`
	SkippedAt time.Time `json:"skipped_at"`
}

// ActionUndonePayload is the payload for an ActionUndone event
type ActionUndonePayload struct {
	DraftID  string    `json:"draft_id"`
	Kind     string    `json:"kind"`
	Nominee  string    `json:"nominee,omitempty"`
	UndoneAt time.Time `json:"undone_at"`
}

// PhaseChangedPayload is the payload for a PhaseChanged event
type PhaseChangedPayload struct {
	DraftID   string    `json:"draft_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Offered   int       `json:"offered"`
	ChangedAt time.Time `json:"changed_at"`
}

// LotteryPlacement is one nominee handed out by the random assignment.
type LotteryPlacement struct {
	Nominee  string `json:"nominee"`
	TeamID   int    `json:"team_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
}

// LotteryCompletedPayload is the payload for a LotteryCompleted event
type LotteryCompletedPayload struct {
	DraftID     string             `json:"draft_id"`
	Placements  []LotteryPlacement `json:"placements"`
	FullyUnsold []string           `json:"fully_unsold"`
	CompletedAt time.Time          `json:"completed_at"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID       string    `json:"draft_id"`
	CompletedAt   time.Time `json:"completed_at"`
	Duration      string    `json:"duration"`
	TotalAssigned int       `json:"total_assigned"`
	FullyUnsold   int       `json:"fully_unsold"`
}

// BidTimerExpiredPayload is the payload for a BidTimerExpired event
type BidTimerExpiredPayload struct {
	DraftID       string    `json:"draft_id"`
	Nominee       string    `json:"nominee"`
	LeadingTeamID int       `json:"leading_team_id,omitempty"`
	LeadingAmount int       `json:"leading_amount,omitempty"`
	ExpiredAt     time.Time `json:"expired_at"`
}
