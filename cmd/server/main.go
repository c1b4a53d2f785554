// Package main implements the entry point for the webtarot server, which
// shuffles and draws tarot spreads, sends them to a language model for
// interpretation, and notifies waiting clients when the text is ready.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dhbtk/webtarot/internal/config"
	"github.com/dhbtk/webtarot/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// run loads configuration, wires the application together and serves until
// interrupted. When migrateCmd is non-empty, only the migration command runs.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return runMigrationCommand(db, migrateCmd)
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Re-enqueue interpretations that were pending when the previous
	// process died. Their original requests are gone, so this is the only
	// way they ever complete.
	recovered, err := app.interpretationService.RecoverPending(ctx)
	if err != nil {
		appLogger.Error("failed to recover pending interpretations", "error", err)
	} else if recovered > 0 {
		appLogger.Info("re-enqueued pending interpretations", "count", recovered)
	}

	return app.Run(ctx)
}
