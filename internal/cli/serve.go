package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"user-account-service/internal/common/config"
	"user-account-service/internal/common/logger"
	"user-account-service/internal/features/user/repository"
	"user-account-service/internal/features/user/repository/memory"
	userpg "user-account-service/internal/features/user/repository/postgres"
	rediscache "user-account-service/internal/features/user/repository/redis"
	"user-account-service/internal/features/user/service"
	apphttp "user-account-service/internal/http"
	"user-account-service/internal/platform/postgres"
	"user-account-service/internal/platform/redis"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.ServiceName, cfg.Debug)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	router, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	logger.Info().Msg("Server exited")
	return nil
}

// buildApp wires storage, cache, service and router. cleanup releases every
// connection opened here.
func buildApp(ctx context.Context, cfg *config.Config) (*gin.Engine, func(), error) {
	var (
		repo    repository.UserRepository
		cache   service.UserCache
		checks  []apphttp.ReadinessCheck
		closers []func() error
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("Failed to close resource")
			}
		}
	}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		repo = memory.NewMemoryRepository()
		logger.Warn().Msg("Using in-memory storage; data is lost on restart")
	default:
		pg, err := postgres.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pg.Close)

		if cfg.Postgres.AutoMigrate {
			if err := postgres.Migrate(ctx, pg.GetDB()); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("failed to migrate: %w", err)
			}
		}

		repo = userpg.NewPostgresRepository(pg.GetDB())
		checks = append(checks, apphttp.ReadinessCheck{Name: "postgres", Checker: pg})
	}

	if cfg.Redis.Enabled {
		rdb, err := redis.Open(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, rdb.Close)

		cache = rediscache.NewUserCache(rdb.Client, cfg.Redis.CacheTTL)
		checks = append(checks, apphttp.ReadinessCheck{Name: "redis", Checker: rdb})
	}

	svc := service.NewUserService(repo, cache)
	return apphttp.NewGinApp(cfg, svc, checks...), cleanup, nil
}
