package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/visitmakkah/visitmakkah/internal/logging"
	"github.com/visitmakkah/visitmakkah/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema (requires db.dsn)",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migrate.Migrator) error { return m.Up() })
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all unless --steps is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *migrate.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 0, "number of migrations to roll back; 0 rolls back everything")

	cmd.AddCommand(up, down)
	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*migrate.Migrator) error) (err error) {
	cfg, err := resolveConfig(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.DB.DSN == "" {
		return errors.New("db.dsn is required for migrations")
	}
	logger, err := logging.New(cfg.Logging.Development, "visitmakkah-migrate")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m, err := migrate.New(cfg.DB.DSN, logger)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			logger.Warn("close migrator failed", zap.Error(cerr))
		}
	}()
	return fn(m)
}
