// Package cli provides common CLI initialization utilities shared by
// cmd/bilancio and cmd/bilancioctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"bilancio/internal/backend"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitService builds the backend selected by cfg and returns a loaded
// FinanceService. Load errors are logged; the service is still usable with
// defaults for the keys that failed.
func InitService(ctx context.Context, logger *log.Logger, cfg *config.Config) (*services.FinanceService, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	svc := services.NewFinanceService(result.Store, services.Options{
		Publisher:       result.Publisher,
		Logger:          logger.WithComponent(log.ComponentStore),
		ResetChecker:    ResetChecker(cfg.RolloverMode),
		DefaultResetDay: cfg.DefaultResetDay,
		CacheSize:       cfg.ProjectionCacheSize,
		CacheTTL:        cfg.ProjectionCacheTTL,
		SeedDefaults:    true,
	})
	if err := svc.Load(ctx); err != nil {
		logger.LogError(ctx, "State loaded with errors", err, log.OpLoad, nil)
	}
	return svc, nil
}

// ResetChecker maps a configured rollover mode to its strategy. Unknown
// modes select the exact reset-day rule.
func ResetChecker(mode string) services.ResetChecker {
	if mode == config.RolloverCatchUp {
		return services.CatchUpResetChecker{}
	}
	return services.MonthlyResetChecker{}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}

// Exit logs err and terminates the process.
func Exit(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
