// Package export renders draft results for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/models"
)

// utf8BOM makes spreadsheet apps detect the encoding of non-ASCII names.
const utf8BOM = "\ufeff"

var csvHeader = []string{"Team", "Leader", "Player", "Roles", "Tier", "ImageURL", "Description", "Cost", "BudgetLeftAfter"}

// CSVFilename is the download name for a CSV export taken at t.
func CSVFilename(t time.Time) string {
	return fmt.Sprintf("auction_results_%s.csv", t.UTC().Format(time.DateOnly))
}

// JSONFilename is the download name for a JSON export taken at t.
func JSONFilename(t time.Time) string {
	return fmt.Sprintf("auction_data_%s.json", t.UTC().Format(time.DateOnly))
}

// WriteCSV writes one row per roster member, in the order given. A team with
// an empty roster still gets a row with blank member columns.
func WriteCSV(w io.Writer, teams []models.Team) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range teams {
		budget := strconv.Itoa(t.BudgetRemaining)
		if len(t.Roster) == 0 {
			if err := cw.Write([]string{t.Name, t.LeaderName, "", "", "", "", "", "0", budget}); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", t.Name, err)
			}
			continue
		}
		for _, m := range t.Roster {
			cost := 0
			if m.Cost != nil {
				cost = *m.Cost
			}
			row := []string{
				t.Name,
				t.LeaderName,
				m.Name,
				joinRoles(m.Roles),
				string(m.Tier),
				m.Image,
				m.Description,
				strconv.Itoa(cost),
				budget,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write row for %s: %w", m.Name, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinRoles(roles []models.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, "/")
}

// Document is the JSON export body.
type Document struct {
	Timestamp time.Time        `json:"timestamp"`
	DraftID   string           `json:"draft_id"`
	Phase     string           `json:"phase"`
	Settings  auction.Settings `json:"settings"`
	State     auction.Snapshot `json:"state"`
}

// NewDocument stamps snap with the export time.
func NewDocument(draftID string, now time.Time, snap auction.Snapshot) Document {
	return Document{
		Timestamp: now.UTC().Truncate(time.Second),
		DraftID:   draftID,
		Phase:     snap.Phase.String(),
		Settings:  snap.Settings,
		State:     snap,
	}
}

// WriteJSON writes doc indented by two spaces.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
