package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/keystone-gg/keystone/internal/config"
	"github.com/keystone-gg/keystone/pkg/keystone"
)

// openTimeout bounds connection probing and the startup sync pass.
const openTimeout = 30 * time.Second

// setupLogging routes subsystem logs to stderr so styled command output
// on stdout stays clean.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig resolves defaults, keystone.yaml, environment, then flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if schemasDir != "" {
		cfg.SchemasDir = schemasDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openClient connects without blocking on the migration gate; commands
// inspect and decide explicitly.
func openClient() (*keystone.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	return keystone.Open(ctx,
		keystone.WithConfig(*cfg),
		keystone.WithLogger(slog.Default()),
		keystone.WithNonBlockingStartup(),
	)
}
