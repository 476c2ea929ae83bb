package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/lolauction/go/internal/draft"
)

const (
	backendFile     = "file"
	backendPostgres = "postgres"
	backendNone     = "none"
)

// Config is the server configuration read from the environment.
type Config struct {
	Port            string
	DraftConfigPath string
	SnapshotBackend string
	SnapshotPath    string
	OutboxEnabled   bool
	OutboxChannel   string
	Seed            *int64
	BidTimer        time.Duration
	AllowedOrigins  []string
}

func loadConfig() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DraftConfigPath: getEnv("DRAFT_CONFIG", "draft.yaml"),
		SnapshotBackend: strings.ToLower(getEnv("SNAPSHOT_BACKEND", backendFile)),
		SnapshotPath:    getEnv("SNAPSHOT_PATH", "auction_state.json"),
		OutboxEnabled:   getEnvAsBool("OUTBOX_ENABLED", false),
		OutboxChannel:   getEnv("OUTBOX_CHANNEL", "auction_outbox_events"),
		BidTimer:        time.Duration(getEnvAsInt("BID_TIMER_SEC", int(draft.DefaultBidTimer/time.Second))) * time.Second,
		AllowedOrigins:  strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
	}

	switch cfg.SnapshotBackend {
	case backendFile, backendPostgres, backendNone:
	default:
		return Config{}, fmt.Errorf("unknown SNAPSHOT_BACKEND %q", cfg.SnapshotBackend)
	}

	if v := os.Getenv("DRAFT_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAFT_SEED %q: %w", v, err)
		}
		cfg.Seed = &seed
	}
	return cfg, nil
}

// needsDatabase reports whether any component talks to Postgres.
func (c Config) needsDatabase() bool {
	return c.OutboxEnabled || c.SnapshotBackend == backendPostgres
}

func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer value")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-boolean value")
	}
	return defaultValue
}
