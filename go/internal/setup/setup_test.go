package setup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/models"
)

const leagueYAML = `
settings:
  enforce_roles: true
  randomize_order: true
  opening_minimum: 10
  use_leaders_as_team_names: true
teams:
  - name: ignored when leaders name teams
    budget: 800
  - capacity: 4
nominees:
  - name: Faker
    roles: [mid, Top, MID]
    tier: challenger
    leader: true
  - name: Keria
    role: Support
    tier: Grandmaster
    leader: true
  - name: Zeus
    roles: [Top]
    image: https://img.example/zeus.png
    description: carry
  - name: "  "
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(leagueYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := auction.Config{
		Settings: auction.Settings{
			EnforceRoles:   true,
			RandomizeOrder: true,
			BidStep:        5,
			OpeningMinimum: 10,
			RosterSize:     5,
			MaxReauctions:  2,
		},
		Teams: []auction.TeamSpec{
			{Name: "Faker", LeaderName: "Faker", Budget: 800},
			{Name: "Keria", LeaderName: "Keria", Budget: 1000, Capacity: 4},
		},
		Nominees: []models.Nominee{
			{Name: "Faker", Roles: []models.Role{models.RoleMid, models.RoleTop}, Tier: models.TierChallenger},
			{Name: "Keria", Roles: []models.Role{models.RoleSupport}, Tier: models.TierGrandmaster},
			{Name: "Zeus", Roles: []models.Role{models.RoleTop}, Image: "https://img.example/zeus.png", Description: "carry"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}

	s, err := auction.NewSession(cfg, auction.NewRand(1))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Remaining() != 1 {
		t.Fatalf("leaders left in pool: remaining=%d", s.Remaining())
	}
}

func TestParse_TeamsFromLeaders(t *testing.T) {
	cfg, err := Parse([]byte(`
nominees:
  - {name: A, leader: true}
  - {name: B, leader: true}
  - {name: C}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []auction.TeamSpec{
		{Name: "Team 1", LeaderName: "A", Budget: 1000},
		{Name: "Team 2", LeaderName: "B", Budget: 1000},
	}
	if diff := cmp.Diff(want, cfg.Teams); diff != "" {
		t.Fatalf("teams (-want +got):\n%s", diff)
	}
}

func TestParse_ExplicitZero(t *testing.T) {
	cfg, err := Parse([]byte(`
settings:
  max_reauctions: 0
teams:
  - {name: Blue, budget: 0}
nominees:
  - {name: A}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Settings.MaxReauctions != 0 || cfg.Teams[0].Budget != 0 {
		t.Fatalf("explicit zero replaced by default: %+v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{name: "unknown role", yaml: "teams: [{name: A}]\nnominees: [{name: X, roles: [Sniper]}]", wantSub: "unknown role"},
		{name: "unknown tier", yaml: "teams: [{name: A}]\nnominees: [{name: X, tier: Wood}]", wantSub: "tier"},
		{name: "leader mismatch", yaml: "teams: [{name: A}, {name: B}]\nnominees: [{name: X, leader: true}]", wantSub: "leader count mismatch"},
		{name: "no nominees", yaml: "teams: [{name: A}]", wantSub: "no nominees"},
		{name: "no teams", yaml: "nominees: [{name: X}]", wantSub: "no teams"},
		{name: "typo key", yaml: "setings: {}\nteams: [{name: A}]\nnominees: [{name: X}]", wantSub: "setings"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error = %v, want it to mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.yaml")
	if err := os.WriteFile(path, []byte(leagueYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Teams) != 2 {
		t.Fatalf("teams = %d", len(cfg.Teams))
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
