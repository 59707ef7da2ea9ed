package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peterfiasco/easylawBe-sub000/internal/bootstrap"
	"github.com/peterfiasco/easylawBe-sub000/internal/config"
	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
	"github.com/peterfiasco/easylawBe-sub000/internal/observability"
)

// operator is the principal pricing changes are attributed to.
var operator = domain.Principal{ID: "srctl", Role: domain.RoleAdmin}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "srctl",
		Short:        "Service request engine operator tools",
		SilenceUsage: true,
	}
	cmd.AddCommand(newMigrateCmd(), newPricingCmd(), newTokenCmd())
	return cmd
}

func loadEnv() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// openContainer wires the application against Postgres. The in-memory
// fallback is refused because nothing would persist past the command.
func openContainer(ctx context.Context) (*bootstrap.Container, error) {
	cfg, logger, err := loadEnv()
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	cfg.Notification.Workers = 0
	return bootstrap.Build(ctx, cfg, logger)
}
