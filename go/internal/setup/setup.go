// Package setup reads the draft configuration file.
package setup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/models"
)

// File mirrors the YAML layout. Numeric settings are pointers so an explicit
// zero can be told apart from an omitted value.
type File struct {
	Settings SettingsFile  `yaml:"settings"`
	Teams    []TeamFile    `yaml:"teams"`
	Nominees []NomineeFile `yaml:"nominees"`
}

type SettingsFile struct {
	EnforceRoles          bool `yaml:"enforce_roles"`
	RandomizeOrder        bool `yaml:"randomize_order"`
	RandomizeTeamOrder    bool `yaml:"randomize_team_order"`
	BidStep               *int `yaml:"bid_step"`
	OpeningMinimum        *int `yaml:"opening_minimum"`
	RosterSize            *int `yaml:"roster_size"`
	MaxReauctions         *int `yaml:"max_reauctions"`
	UseLeadersAsTeamNames bool `yaml:"use_leaders_as_team_names"`
}

type TeamFile struct {
	Name     string `yaml:"name"`
	Budget   *int   `yaml:"budget"`
	Capacity int    `yaml:"capacity"`
}

type NomineeFile struct {
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`
	// Role is the older single-role field, used when Roles is empty.
	Role        string `yaml:"role"`
	Tier        string `yaml:"tier"`
	Image       string `yaml:"image"`
	Description string `yaml:"description"`
	Leader      bool   `yaml:"leader"`
}

// Load reads and converts the YAML file at path.
func Load(path string) (auction.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return auction.Config{}, fmt.Errorf("failed to read draft config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return auction.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse converts YAML bytes into a draft configuration. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (auction.Config, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return auction.Config{}, fmt.Errorf("failed to decode draft config: %w", err)
	}
	return f.Config()
}

// Config applies defaults, resolves leaders and normalizes roles and tiers.
func (f File) Config() (auction.Config, error) {
	settings := auction.Settings{
		EnforceRoles:   f.Settings.EnforceRoles,
		RandomizeOrder: f.Settings.RandomizeOrder,
		BidStep:        intOr(f.Settings.BidStep, auction.DefaultBidStep),
		OpeningMinimum: intOr(f.Settings.OpeningMinimum, auction.DefaultOpeningMinimum),
		RosterSize:     intOr(f.Settings.RosterSize, auction.DefaultRosterSize),
		MaxReauctions:  intOr(f.Settings.MaxReauctions, auction.DefaultMaxReauctions),
	}

	nominees := make([]models.Nominee, 0, len(f.Nominees))
	var leaders []string
	for i, n := range f.Nominees {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			// blank cards are ignored
			continue
		}
		roles, err := models.NormalizeRoles(n.Roles, n.Role)
		if err != nil {
			return auction.Config{}, fmt.Errorf("nominee %d (%s): %w", i+1, name, err)
		}
		tier, err := models.ParseTier(n.Tier)
		if err != nil {
			return auction.Config{}, fmt.Errorf("nominee %d (%s): %w", i+1, name, err)
		}
		nominees = append(nominees, models.Nominee{
			Name:        name,
			Roles:       roles,
			Tier:        tier,
			Image:       strings.TrimSpace(n.Image),
			Description: n.Description,
		})
		if n.Leader {
			leaders = append(leaders, name)
		}
	}
	if len(nominees) == 0 {
		return auction.Config{}, errors.New("no nominees listed")
	}

	teamFiles := f.Teams
	if len(teamFiles) == 0 {
		// one team per leader
		teamFiles = make([]TeamFile, len(leaders))
	}
	if len(teamFiles) == 0 {
		return auction.Config{}, errors.New("no teams listed and no leaders to form them")
	}
	if len(leaders) > 0 && len(leaders) != len(teamFiles) {
		return auction.Config{}, fmt.Errorf("leader count mismatch: %d teams need %d leaders, got %d", len(teamFiles), len(teamFiles), len(leaders))
	}

	teams := make([]auction.TeamSpec, len(teamFiles))
	for i, t := range teamFiles {
		spec := auction.TeamSpec{
			Name:     strings.TrimSpace(t.Name),
			Budget:   intOr(t.Budget, auction.DefaultBudget),
			Capacity: t.Capacity,
		}
		if len(leaders) > 0 {
			spec.LeaderName = leaders[i]
			if f.Settings.UseLeadersAsTeamNames {
				spec.Name = leaders[i]
			}
		}
		if spec.Name == "" {
			spec.Name = fmt.Sprintf("Team %d", i+1)
		}
		teams[i] = spec
	}

	return auction.Config{
		Settings:           settings,
		Teams:              teams,
		Nominees:           nominees,
		RandomizeTeamOrder: f.Settings.RandomizeTeamOrder,
	}, nil
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
