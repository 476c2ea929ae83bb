package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/models"
	"github.com/mcdev12/lolauction/go/internal/setup"
)

func main() {
	path := "draft.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Parse the YAML file
	cfg, err := setup.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", path, err)
		os.Exit(1)
	}

	// 2) Open a throwaway session so team and pool checks run too
	session, err := auction.NewSession(cfg, auction.NewRand(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid draft: %v\n", err)
		os.Exit(1)
	}

	// 3) Print summary
	s := session.Settings()
	fmt.Printf("Settings: enforce_roles=%t randomize_order=%t bid_step=%d opening_minimum=%d roster_size=%d max_reauctions=%d\n",
		s.EnforceRoles, s.RandomizeOrder, s.BidStep, s.OpeningMinimum, s.RosterSize, s.MaxReauctions)

	slots := 0
	for _, t := range session.Teams() {
		leader := t.LeaderName
		if leader == "" {
			leader = "-"
		}
		free := t.Capacity - t.EffectiveSize()
		slots += free
		fmt.Printf("Team %d %q: leader=%s budget=%d capacity=%d open_slots=%d\n",
			t.ID, t.Name, leader, t.BudgetRemaining, t.Capacity, free)
	}

	pool := session.Queue()
	byRole := make(map[models.Role]int)
	for _, n := range pool {
		for _, r := range n.Roles {
			byRole[r]++
		}
	}
	fmt.Printf("Pool: %d nominees for %d open slots\n", len(pool), slots)

	roles := make([]models.Role, 0, len(byRole))
	for r := range byRole {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	for _, r := range roles {
		fmt.Printf("  %-8s %d\n", r, byRole[r])
	}
	if len(pool) > slots {
		fmt.Printf("Warning: %d nominees cannot be placed even by the lottery\n", len(pool)-slots)
	}
}
