package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/lolauction/go/internal/auction"
	"github.com/mcdev12/lolauction/go/internal/dbconfig"
	"github.com/mcdev12/lolauction/go/internal/draft"
	"github.com/mcdev12/lolauction/go/internal/draft/outbox"
	"github.com/mcdev12/lolauction/go/internal/draft/repository"
	"github.com/mcdev12/lolauction/go/internal/setup"
)

// Services holds the wired application and the resources it owns.
type Services struct {
	Draft *draft.App
	db    *sql.DB
	pool  *pgxpool.Pool
}

// Close releases the draft and its database handles.
func (s *Services) Close() {
	if s.Draft != nil {
		s.Draft.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
}

func setupServices(ctx context.Context, cfg Config) (*Services, error) {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer
	svc := &Services{}
	opts := draft.Options{BidTimer: cfg.BidTimer}
	if cfg.Seed != nil {
		opts.Rand = auction.NewRand(*cfg.Seed)
	}

	if cfg.needsDatabase() {
		dbCfg := dbconfig.NewConfigFromEnv()
		if cfg.OutboxEnabled {
			db, err := setupDatabase(ctx, dbCfg)
			if err != nil {
				return nil, err
			}
			svc.db = db
			outboxRepo := outbox.NewRepository(db, cfg.OutboxChannel)
			if err := outboxRepo.Migrate(ctx); err != nil {
				svc.Close()
				return nil, fmt.Errorf("failed to migrate outbox: %w", err)
			}
			opts.Events = outbox.NewApp(outboxRepo, nil)
		}
		if cfg.SnapshotBackend == backendPostgres {
			pool, err := setupPool(ctx, dbCfg)
			if err != nil {
				svc.Close()
				return nil, err
			}
			svc.pool = pool
			store := repository.NewPostgresStore(pool)
			if err := store.Migrate(ctx); err != nil {
				svc.Close()
				return nil, fmt.Errorf("failed to migrate snapshot store: %w", err)
			}
			opts.Store = store
		}
	}
	if cfg.SnapshotBackend == backendFile {
		opts.Store = repository.NewFileStore(cfg.SnapshotPath)
	}

	draftCfg, err := setup.Load(cfg.DraftConfigPath)
	if err != nil {
		svc.Close()
		return nil, err
	}

	app, err := draft.Open(ctx, draftCfg, opts)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Draft = app

	log.Info().
		Str("draft_id", app.DraftID().String()).
		Str("snapshot_backend", cfg.SnapshotBackend).
		Bool("outbox", cfg.OutboxEnabled).
		Dur("bid_timer", cfg.BidTimer).
		Msg("services ready")
	return svc, nil
}
