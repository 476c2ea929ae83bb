package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/models"
)

func TestWriteCSV(t *testing.T) {
	faker := models.Nominee{
		Name:        "Faker",
		Roles:       []models.Role{models.RoleMid, models.RoleTop},
		Tier:        models.TierChallenger,
		Image:       "https://img.example/faker.png",
		Description: "unkillable, demon",
	}.WithCost(120)
	teams := []models.Team{
		{ID: 1, Name: "Blue", LeaderName: "Keria", BudgetRemaining: 880, Roster: []models.Nominee{faker}},
		{ID: 2, Name: "Red", BudgetRemaining: 1000},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, teams); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatal("missing BOM")
	}
	want := []string{
		"Team,Leader,Player,Roles,Tier,ImageURL,Description,Cost,BudgetLeftAfter",
		`Blue,Keria,Faker,Mid/Top,Challenger,https://img.example/faker.png,"unkillable, demon",120,880`,
		"Red,,,,,,,0,1000",
	}
	got := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("csv (-want +got):\n%s", diff)
	}
}

func TestFilenames(t *testing.T) {
	at := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)
	if got := CSVFilename(at); got != "auction_results_2025-03-01.csv" {
		t.Fatalf("csv name = %q", got)
	}
	if got := JSONFilename(at); got != "auction_data_2025-03-01.json" {
		t.Fatalf("json name = %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	s, err := auction.NewSession(auction.Config{
		Settings: auction.DefaultSettings(),
		Teams:    []auction.TeamSpec{{Name: "Blue", Budget: 50}},
		Nominees: []models.Nominee{{Name: "Faker"}},
	}, auction.NewRand(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PlaceBid(1, 10); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 500, time.UTC)
	doc := NewDocument("draft-1", now, s.Snapshot())

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"timestamp": "2025-03-01T12:00:00Z"`) {
		t.Fatalf("timestamp not RFC 3339 seconds:\n%s", buf.String())
	}

	var got Document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(doc, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("document (-want +got):\n%s", diff)
	}
	if got.Phase != "main" {
		t.Fatalf("phase = %q", got.Phase)
	}
}
