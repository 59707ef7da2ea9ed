package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				pg, logger, err := connectPostgres(cmd)
				if err != nil {
					return err
				}
				defer pg.Close()
				return persistence.RunMigrations(cmd.Context(), pg.Pool, logger)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				pg, logger, err := connectPostgres(cmd)
				if err != nil {
					return err
				}
				defer pg.Close()
				return persistence.MigrationStatus(cmd.Context(), pg.Pool, logger)
			},
		},
	)
	return cmd
}

func connectPostgres(cmd *cobra.Command) (*persistence.Postgres, *zap.Logger, error) {
	cfg, logger, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
	if err != nil {
		return nil, nil, err
	}
	return pg, logger, nil
}
