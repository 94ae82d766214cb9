package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sellersaathi/copilot-api/internal/router"
	"github.com/sellersaathi/copilot-api/pkg/ai"
	"github.com/sellersaathi/copilot-api/pkg/festival"
	"github.com/sellersaathi/copilot-api/pkg/logger"
	"github.com/sellersaathi/copilot-api/pkg/redis"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	svc := festival.NewService(source, festival.WithLocation(cfg.Location()))
	copilot := ai.NewCopilot(ai.NewProviders(ctx, cfg), svc, cfg.Festivals.InlineMax)

	var limiter *redis.Limiter
	if rdb := redis.NewClient(cfg.Redis); rdb != nil {
		defer rdb.Close()
		if err := redis.Ping(ctx, rdb); err != nil {
			logger.Logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unreachable, rate limiting fails open")
		}
		limiter = redis.NewLimiter(rdb, redis.Limit{
			Name:     "generate",
			Capacity: cfg.HTTP.RateLimitCapacity,
			Window:   cfg.HTTP.RateLimitWindow,
		})
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.NewEngine(router.Deps{
			Config:  cfg,
			Copilot: copilot,
			Limiter: limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Logger.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Env).
		Str("festival_source", svc.SourceName()).
		Bool("rate_limited", limiter != nil).
		Msg("server is running")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("run server: %w", err)
	case <-ctx.Done():
	}

	logger.Logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
