package auction

import "fmt"

// PhaseKind is the stage of the draft.
type PhaseKind string

const (
	PhaseMain             PhaseKind = "main"
	PhaseReauction        PhaseKind = "reauction"
	PhaseRandomAssignment PhaseKind = "random_assignment"
	PhaseComplete         PhaseKind = "complete"
)

// Phase is the current stage. Round is set only for reauction phases and
// counts from 1.
type Phase struct {
	Kind  PhaseKind `json:"kind"`
	Round int       `json:"round,omitempty"`
}

func MainPhase() Phase             { return Phase{Kind: PhaseMain} }
func ReauctionPhase(n int) Phase   { return Phase{Kind: PhaseReauction, Round: n} }
func RandomAssignmentPhase() Phase { return Phase{Kind: PhaseRandomAssignment} }
func CompletePhase() Phase         { return Phase{Kind: PhaseComplete} }

func (p Phase) String() string {
	if p.Kind == PhaseReauction {
		return fmt.Sprintf("reauction(%d)", p.Round)
	}
	return string(p.Kind)
}

// IsComplete reports whether the draft has ended.
func (p Phase) IsComplete() bool {
	return p.Kind == PhaseComplete
}

func (p Phase) valid() bool {
	switch p.Kind {
	case PhaseMain, PhaseComplete, PhaseRandomAssignment:
		return p.Round == 0
	case PhaseReauction:
		return p.Round > 0
	}
	return false
}
