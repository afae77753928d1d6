package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/persistence"
)

var flagMigrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations to PostgreSQL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, err := observability.NewLogger(cfg.Logger)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck

		pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if !pg.Enabled() {
			return errors.New("POSTGRES_DSN is required for migrate")
		}

		dir := cfg.Postgres.MigrationsDir
		if flagMigrationsDir != "" {
			dir = flagMigrationsDir
		}
		if err := persistence.RunMigrations(cmd.Context(), pg.Pool, dir, logger); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("dir", dir))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&flagMigrationsDir, "dir", "", "migrations directory (default from POSTGRES_MIGRATIONS_DIR)")
	rootCmd.AddCommand(migrateCmd)
}
