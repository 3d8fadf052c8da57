// Package main applies the database migrations and loads the demo school
// network into PostgreSQL.
//
// Usage:
//
//	seed                 migrate, then upsert the demo directory
//	seed -status         list migrations and exit
//	seed -rollback       revert the last migration and exit
//	seed -migrate-only   skip the directory upsert
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seduc-pe/academic-hub/config"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/persistence/postgres"
	"github.com/seduc-pe/academic-hub/internal/infrastructure/provider/fixture"
	"github.com/seduc-pe/academic-hub/pkg/retry"
)

func main() {
	var (
		status      = flag.Bool("status", false, "list migrations and exit")
		rollback    = flag.Bool("rollback", false, "revert the last migration and exit")
		migrateOnly = flag.Bool("migrate-only", false, "apply migrations without seeding")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(ctx, log, *status, *rollback, *migrateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, status, rollback, migrateOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	r := retry.StartupRetrier(func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
	})
	conn, err := postgres.Dial(ctx, r, cfg.Database.URL, postgres.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)

	switch {
	case status:
		migrations, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			state := "pending"
			if m.IsApplied {
				state = "applied " + m.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%03d  %-24s %s\n", m.Version, m.Name, state)
		}
		return nil

	case rollback:
		if err := migrator.Rollback(ctx); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Info("last migration rolled back")
		return nil
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations applied")

	if migrateOnly {
		return nil
	}

	stats, err := postgres.Seed(ctx, conn, postgres.SeedData(fixture.DefaultDataset()))
	if err != nil {
		return fmt.Errorf("failed to seed directory: %w", err)
	}
	log.Info("directory seeded",
		"schools", stats.Schools,
		"class_groups", stats.ClassGroups,
		"subjects", stats.Subjects,
		"students", stats.Students,
		"teachers", stats.Teachers,
		"allocations", stats.Allocations,
	)
	return nil
}
