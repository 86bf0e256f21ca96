// Package main manages the article store schema from the command line.
//
// Usage:
//
//	migrate [-path dir] up       apply all pending migrations
//	migrate [-path dir] down     roll back the whole schema
//	migrate [-path dir] version  print the current schema version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/helixir/article-extraction-service/internal/config"
	"github.com/helixir/article-extraction-service/internal/database"
	"github.com/helixir/article-extraction-service/internal/observability"
)

const connectTimeout = 30 * time.Second

func main() {
	pathFlag := flag.String("path", "", "override the migrations directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *pathFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-path dir] <up|down|version>")
	flag.PrintDefaults()
}

func run(command, pathOverride string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "migrate").Logger()

	dir := cfg.Database.MigrationPath
	if pathOverride != "" {
		dir = pathOverride
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, dir, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	switch command {
	case "up":
		return migrator.Up()

	case "down":
		logger.Warn().Msg("rolling back the article store schema")
		return migrator.Down()

	case "version":
		v, dirty, err := migrator.Version()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		logger.Info().Uint("version", v).Bool("dirty", dirty).Msg("current schema version")
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
