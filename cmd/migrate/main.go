// Command migrate runs schema operations for the Kaizen database.
//
//	migrate up            apply pending SQL migrations
//	migrate auto          run GORM AutoMigrate over the board models
//	migrate status        print the schema plan, pending migrations and missing indexes
//	migrate verify        like status, but exit non-zero unless the schema is complete
//	migrate down <ver>    roll back one applied migration
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"kaizen/internal/config"
	"kaizen/internal/database"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error

var commands = map[string]command{
	"up":     migrateUp,
	"auto":   migrateAuto,
	"status": showStatus,
	"verify": verify,
	"down":   migrateDown,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|auto|status|verify|down> [version]")
}

func run() error {
	flag.Parse()
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	return cmd(context.Background(), db, cfg, flag.Args()[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	log.Println("sql migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	log.Println("automigrations applied")
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*database.SchemaStatus, error) {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return nil, fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d",
		status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
		len(status.AppliedVersions), len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		log.Printf("pending: %s", m)
	}
	for _, idx := range status.MissingIndexes {
		log.Printf("missing index: %s", idx)
	}
	return status, nil
}

func showStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	_, err := printStatus(ctx, db, cfg)
	return err
}

func verify(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := printStatus(ctx, db, cfg)
	if err != nil {
		return err
	}
	if len(status.PendingMigrations) > 0 || len(status.MissingIndexes) > 0 {
		return fmt.Errorf("schema incomplete: %d pending migrations, %d missing indexes",
			len(status.PendingMigrations), len(status.MissingIndexes))
	}
	log.Println("schema complete")
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: go run ./cmd/migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	log.Printf("rolled back migration %d", version)
	return nil
}
