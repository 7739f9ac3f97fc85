// Package cli provides the initialization shared by every command:
// env files, configuration, logging, error reporting, signals and the store.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expensify/internal/backend"
	"expensify/internal/buildinfo"
	"expensify/internal/config"
	applog "expensify/internal/log"
	"expensify/internal/telemetry"
)

// Bootstrap loads env files and configuration, then installs the default logger.
func Bootstrap(envFiles ...string) (*config.Config, *applog.Logger, error) {
	if err := config.LoadEnvFile(envFiles...); err != nil {
		return nil, nil, err
	}

	cfg := config.Load()
	logger := applog.New(applog.ConfigFromStrings(cfg.LogLevel, cfg.LogFormat))
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		return nil, nil, err
	}
	return cfg, logger, nil
}

// InitTelemetry enables Sentry when a DSN is configured. The returned func
// flushes buffered events and is always safe to call.
func InitTelemetry(cfg *config.Config, logger *applog.Logger) func() {
	enabled, err := telemetry.Init(telemetry.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
	})
	if err != nil {
		logger.Warn("Error reporting disabled", applog.FieldError, err.Error())
		return func() {}
	}
	if !enabled {
		return func() {}
	}
	logger.Info("Error reporting enabled", "environment", cfg.SentryEnvironment)
	return func() { telemetry.Flush(2 * time.Second) }
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// OpenStore opens the configured data backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.Result, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).Open(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", bcfg.Type, err)
	}
	return res, nil
}
