package auction

import "fmt"

// ValidationCode identifies why a bid was rejected.
type ValidationCode string

const (
	CodeUnknownTeam         ValidationCode = "unknown_team"
	CodeRosterFull          ValidationCode = "roster_full"
	CodeInsufficientBudget  ValidationCode = "insufficient_budget"
	CodeBidBelowMinimum     ValidationCode = "bid_below_minimum"
	CodeBidNotAlignedToStep ValidationCode = "bid_not_aligned_to_step"
	CodeRoleConflict        ValidationCode = "role_conflict"
)

var validationMessages = map[ValidationCode]string{
	CodeUnknownTeam:         "unknown team",
	CodeRosterFull:          "roster is full",
	CodeInsufficientBudget:  "insufficient budget",
	CodeBidBelowMinimum:     "bid below minimum",
	CodeBidNotAlignedToStep: "bid not aligned to step",
	CodeRoleConflict:        "every role of the nominee is already taken on the team",
}

// ValidationError is returned when a bid fails a constraint check.
// No state has been mutated when it is returned.
type ValidationError struct {
	Code   ValidationCode
	TeamID int
	// Minimum is the lowest legal bid, set for bid legality failures.
	Minimum int
	Detail  string
}

func (e *ValidationError) Error() string {
	msg := validationMessages[e.Code]
	if e.Detail != "" {
		return msg + ": " + e.Detail
	}
	return msg
}

// Is matches any ValidationError carrying the same code, so callers can use
// errors.Is(err, auction.ErrRosterFull).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Code == e.Code
}

var (
	ErrUnknownTeam         = &ValidationError{Code: CodeUnknownTeam}
	ErrRosterFull          = &ValidationError{Code: CodeRosterFull}
	ErrInsufficientBudget  = &ValidationError{Code: CodeInsufficientBudget}
	ErrBidBelowMinimum     = &ValidationError{Code: CodeBidBelowMinimum}
	ErrBidNotAlignedToStep = &ValidationError{Code: CodeBidNotAlignedToStep}
	ErrRoleConflict        = &ValidationError{Code: CodeRoleConflict}
)

// StateCode identifies a command issued in the wrong state.
type StateCode string

const (
	CodeNoActiveNominee StateCode = "no_active_nominee"
	CodeNoLeadingBid    StateCode = "no_leading_bid"
	CodeEmptyHistory    StateCode = "empty_history"
	CodeRoundInProgress StateCode = "round_in_progress"
	CodeDraftComplete   StateCode = "draft_complete"
)

var stateMessages = map[StateCode]string{
	CodeNoActiveNominee: "no nominee at the cursor",
	CodeNoLeadingBid:    "no leading bid",
	CodeEmptyHistory:    "nothing to undo",
	CodeRoundInProgress: "round still has nominees left",
	CodeDraftComplete:   "draft is complete",
}

// StateError is returned when a command cannot run in the current state.
type StateError struct {
	Code StateCode
}

func (e *StateError) Error() string {
	return stateMessages[e.Code]
}

// Is matches any StateError carrying the same code.
func (e *StateError) Is(target error) bool {
	t, ok := target.(*StateError)
	return ok && t.Code == e.Code
}

var (
	ErrNoActiveNominee = &StateError{Code: CodeNoActiveNominee}
	ErrNoLeadingBid    = &StateError{Code: CodeNoLeadingBid}
	ErrEmptyHistory    = &StateError{Code: CodeEmptyHistory}
	ErrRoundInProgress = &StateError{Code: CodeRoundInProgress}
	ErrDraftComplete   = &StateError{Code: CodeDraftComplete}
)

// ConfigError reports bad draft configuration or an inconsistent snapshot.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func configErr(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
