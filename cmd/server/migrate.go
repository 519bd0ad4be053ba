package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/todo/internal/config"
	pgInfra "github.com/fastygo/todo/internal/infrastructure/postgres"
	"github.com/fastygo/todo/pkg/logger"
)

// migrateCmd implements 'todo migrate' command group.
func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(
		migrateUpCmd(),
		migrateDownCmd(),
	)

	return cmd
}

// migrateUpCmd implements 'todo migrate up'.
func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(func(m *pgInfra.Migrator) error {
				return m.Up()
			})
		},
	}
}

// migrateDownCmd implements 'todo migrate down'.
func migrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(func(m *pgInfra.Migrator) error {
				return m.Down(steps)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (0 for all)")
	return cmd
}

func withMigrator(fn func(m *pgInfra.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("migrations require STORAGE_DRIVER=%s, got %s", config.StorageDriverPostgres, cfg.Storage.Driver)
	}

	zapLogger, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	m, err := pgInfra.NewMigrator(cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	defer m.Close()
	return fn(m)
}
