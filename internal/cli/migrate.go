package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"user-account-service/internal/common/config"
	"user-account-service/internal/common/logger"
	"user-account-service/internal/platform/postgres"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.ServiceName, cfg.Debug)

			return migrate(cmd.Context(), cfg)
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("migrate requires STORAGE_DRIVER=%s, got %q", config.StorageDriverPostgres, cfg.StorageDriver)
	}

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := postgres.Migrate(ctx, pg.GetDB()); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	logger.Info().Msg("Migrations applied")
	return nil
}
