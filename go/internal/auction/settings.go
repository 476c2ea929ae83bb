package auction

import (
	"math/rand"
	"time"

	"github.com/mcdev12/lolauction/go/internal/models"
)

const (
	DefaultBidStep        = 5
	DefaultOpeningMinimum = 5
	DefaultRosterSize     = 5
	DefaultMaxReauctions  = 2
	DefaultBudget         = 1000
)

// Settings are the draft-wide rules, fixed at draft start.
type Settings struct {
	EnforceRoles   bool `json:"enforce_roles"`
	RandomizeOrder bool `json:"randomize_order"`
	BidStep        int  `json:"bid_step"`
	OpeningMinimum int  `json:"opening_minimum"`
	// RosterSize is the capacity given to teams that do not set their own.
	RosterSize int `json:"roster_size"`
	// MaxReauctions is how many re-offer rounds run before the lottery.
	MaxReauctions int `json:"max_reauctions"`
}

// DefaultSettings returns the stock auction rules.
func DefaultSettings() Settings {
	return Settings{
		BidStep:        DefaultBidStep,
		OpeningMinimum: DefaultOpeningMinimum,
		RosterSize:     DefaultRosterSize,
		MaxReauctions:  DefaultMaxReauctions,
	}
}

func (s Settings) validate() error {
	if s.BidStep <= 0 {
		return configErr("bid_step", "must be positive, got %d", s.BidStep)
	}
	if s.OpeningMinimum < 0 {
		return configErr("opening_minimum", "must not be negative, got %d", s.OpeningMinimum)
	}
	if s.RosterSize <= 0 {
		return configErr("roster_size", "must be positive, got %d", s.RosterSize)
	}
	if s.MaxReauctions < 0 {
		return configErr("max_reauctions", "must not be negative, got %d", s.MaxReauctions)
	}
	return nil
}

// TeamSpec describes a team before the draft starts.
type TeamSpec struct {
	Name       string
	LeaderName string
	Budget     int
	// Capacity falls back to Settings.RosterSize when zero.
	Capacity int
}

// Config is everything needed to start a draft.
type Config struct {
	Settings Settings
	Teams    []TeamSpec
	// Nominees may include the leaders; they are removed from the pool.
	Nominees           []models.Nominee
	RandomizeTeamOrder bool
}

// Rand is the random source used for shuffles and the lottery.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a seeded source so draft outcomes are reproducible.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func defaultRand() Rand {
	return NewRand(time.Now().UnixNano())
}
