package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/dbconfig"
	"github.com/mcdev12/lolauction/go/internal/draft/repository"
)

func main() {
	ctx := context.Background()

	path := "auction_state.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the file snapshot
	rec, err := repository.NewFileStore(path).Load(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		fmt.Fprintf(os.Stderr, "no snapshot at %s\n", path)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "read snapshot: %v\n", err)
		os.Exit(1)
	}

	// 2) Refuse snapshots the server could not resume
	if _, err := auction.Restore(rec.State, nil); err != nil {
		fmt.Fprintf(os.Stderr, "snapshot is inconsistent: %v\n", err)
		os.Exit(1)
	}

	// 3) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 4) Migrate and upsert
	store := repository.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	if err := store.Save(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "save snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf(
		"Snapshot seed complete: draft=%s phase=%s cursor=%d teams=%d saved_at=%s\n",
		rec.DraftID, rec.State.Phase, rec.State.Cursor, len(rec.State.Teams), rec.SavedAt.Format("2006-01-02T15:04:05Z07:00"),
	)
}
