package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expensify/internal/amqp"
	"expensify/internal/auth"
	"expensify/internal/cache"
	"expensify/internal/cli"
	"expensify/internal/config"
	apphttp "expensify/internal/http"
	"expensify/internal/insights"
	applog "expensify/internal/log"
	"expensify/internal/services"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := cli.Bootstrap(root.envFiles...)
			if err != nil {
				return err
			}
			if err := cfg.RequireJWTSecret(); err != nil {
				return err
			}
			flush := cli.InitTelemetry(cfg, logger)
			defer flush()

			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	res, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Store close failed", applog.FieldError, err.Error())
		}
	}()

	publisher := newOptionalPublisher(cfg, logger)
	if publisher != nil {
		defer publisher.Close()
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	profiles := cache.NewLRUCache[int64, services.Profile](1000, 10*time.Minute)
	caches := cache.NewManager(profiles)

	// a nil *amqp.Client must not become a non-nil interface
	var expenses *services.ExpenseService
	if publisher != nil {
		expenses = services.NewExpenseService(res.Store, publisher)
	} else {
		expenses = services.NewExpenseService(res.Store, nil)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          cfg.Addr(),
		Auth:          services.NewAuthService(res.Store, tokens, profiles),
		Expenses:      expenses,
		Insights:      insights.NewService(res.Store, insights.WithFetchTimeout(cfg.FetchTimeout)),
		Tokens:        tokens,
		Ready:         res.Store,
		Logger:        logger,
		CORSOrigin:    cfg.CORSOrigin,
		CookieSecure:  cfg.CookieSecure,
		AuthRateLimit: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	caches.Start(gctx, 10*time.Minute)

	g.Go(func() error {
		logger.Info("Starting expensify server", "addr", cfg.Addr(), "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.RunBackground(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	caches.Wait()
	if err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// newOptionalPublisher connects to AMQP when configured. The API keeps
// serving without events when the broker is unreachable at startup.
func newOptionalPublisher(cfg *config.Config, logger *applog.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP not configured, expense events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err.Error())
		return nil
	}
	logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
