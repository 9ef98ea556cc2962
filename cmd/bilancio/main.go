package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/cache"
	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	"bilancio/internal/log"
	"bilancio/internal/worker"
)

const (
	cacheSweepInterval    = time.Minute
	rolloverCheckInterval = 15 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(log.Default(log.ComponentApp), "Configuration validation failed", err)
	}

	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting bilancio",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", cfg.AMQPEnabled())

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	svc, err := cli.InitService(ctx, logger, cfg)
	if err != nil {
		cli.Exit(logger, "Failed to initialize service", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.LogError(context.Background(), "Failed to close service", err, log.OpShutdown, nil)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger.WithComponent(log.ComponentHTTP))
	cacheLogger := logger.WithComponent(log.ComponentCache)
	janitor := cache.NewJanitor(func(removed int) {
		cacheLogger.Debug("Expired projections removed", "removed", removed)
	}, svc.Projections())
	rollover := worker.NewRolloverWorker(svc, rolloverCheckInterval, logger.WithComponent(log.ComponentArchiver))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return janitor.Run(gctx, cacheSweepInterval)
	})
	g.Go(func() error {
		return rollover.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.LogError(context.Background(), "Server stopped with error", err, log.OpShutdown, nil)
		return
	}
	logger.Info("Server stopped gracefully")
}
