package auction

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/lolauction/go/internal/models"
)

// EntryKind tags a history entry.
type EntryKind string

const (
	EntryBidPlaced EntryKind = "bid_placed"
	EntryAssigned  EntryKind = "assigned"
	EntrySkipped   EntryKind = "skipped"
)

// Entry is one undoable command recorded in the current phase. The set of
// entries is closed: BidPlaced, Assigned and Skipped.
type Entry interface {
	Kind() EntryKind
	revert(s *Session)
}

// BidPlaced records a bid by the leading bid it replaced.
type BidPlaced struct {
	PreviousLeadingBid *Bid `json:"previous_leading_bid"`
}

// Assigned records a sale.
type Assigned struct {
	TeamID       int            `json:"team_id"`
	Amount       int            `json:"amount"`
	Nominee      models.Nominee `json:"nominee"`
	CursorBefore int            `json:"cursor_before"`
}

// Skipped records a nominee passed over into the unsold collector.
type Skipped struct {
	Nominee            models.Nominee `json:"nominee"`
	CursorBefore       int            `json:"cursor_before"`
	PreviousLeadingBid *Bid           `json:"previous_leading_bid"`
}

func (BidPlaced) Kind() EntryKind { return EntryBidPlaced }
func (Assigned) Kind() EntryKind  { return EntryAssigned }
func (Skipped) Kind() EntryKind   { return EntrySkipped }

func (e BidPlaced) revert(s *Session) {
	s.leading = e.PreviousLeadingBid.clone()
}

func (e Assigned) revert(s *Session) {
	t := s.team(e.TeamID)
	t.BudgetRemaining += e.Amount
	t.Roster = t.Roster[:len(t.Roster)-1]
	s.cursor = e.CursorBefore
	// The winning bid is the leading bid that existed before the sale.
	s.leading = &Bid{TeamID: e.TeamID, Amount: e.Amount}
}

func (e Skipped) revert(s *Session) {
	s.unsold = s.unsold[:len(s.unsold)-1]
	s.cursor = e.CursorBefore
	s.leading = e.PreviousLeadingBid.clone()
}

// History is the undo stack, oldest first.
type History []Entry

type historyRecord struct {
	Type EntryKind       `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h History) MarshalJSON() ([]byte, error) {
	records := make([]historyRecord, 0, len(h))
	for _, e := range h {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s entry: %w", e.Kind(), err)
		}
		records = append(records, historyRecord{Type: e.Kind(), Data: data})
	}
	return json.Marshal(records)
}

func (h *History) UnmarshalJSON(b []byte) error {
	var records []historyRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return err
	}
	out := make(History, 0, len(records))
	for i, r := range records {
		var (
			e   Entry
			err error
		)
		switch r.Type {
		case EntryBidPlaced:
			var v BidPlaced
			err = json.Unmarshal(r.Data, &v)
			e = v
		case EntryAssigned:
			var v Assigned
			err = json.Unmarshal(r.Data, &v)
			e = v
		case EntrySkipped:
			var v Skipped
			err = json.Unmarshal(r.Data, &v)
			e = v
		default:
			return fmt.Errorf("history entry %d: unknown type %q", i, r.Type)
		}
		if err != nil {
			return fmt.Errorf("history entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	*h = out
	return nil
}

func cloneEntry(e Entry) Entry {
	switch v := e.(type) {
	case BidPlaced:
		v.PreviousLeadingBid = v.PreviousLeadingBid.clone()
		return v
	case Assigned:
		v.Nominee = v.Nominee.Clone()
		return v
	case Skipped:
		v.Nominee = v.Nominee.Clone()
		v.PreviousLeadingBid = v.PreviousLeadingBid.clone()
		return v
	}
	return e
}

func (h History) clone() History {
	if h == nil {
		return nil
	}
	out := make(History, len(h))
	for i, e := range h {
		out[i] = cloneEntry(e)
	}
	return out
}
