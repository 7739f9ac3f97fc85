package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"expensify/internal/amqp"
	"expensify/internal/cli"
	"expensify/internal/config"
	"expensify/internal/insights"
	applog "expensify/internal/log"
	"expensify/internal/sheets"
	gsheet "expensify/internal/sheets/google"
	"expensify/internal/worker"
)

type workerOptions struct {
	digestMonth string
}

func newWorkerCommand(root *rootOptions) *cobra.Command {
	opts := &workerOptions{}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume expense events and publish monthly insight digests",
		Long: "Consumes expense events into the audit sheet and runs the insights digest on DIGEST_SCHEDULE.\n" +
			"With --digest-month the digest for that month is published once and the command exits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := cli.Bootstrap(root.envFiles...)
			if err != nil {
				return err
			}
			if err := cfg.RequireAMQP(); err != nil {
				return err
			}
			flush := cli.InitTelemetry(cfg, logger)
			defer flush()

			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()
			return runWorker(ctx, cfg, logger.WithComponent(applog.ComponentWorker), opts)
		},
	}
	cmd.Flags().StringVar(&opts.digestMonth, "digest-month", "", "publish the digest for this month (YYYY-MM) and exit")

	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, logger *applog.Logger, opts *workerOptions) error {
	logger.Info("Starting expensify worker", applog.FieldOperation, applog.OpStartup)

	res, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Store close failed", applog.FieldError, err.Error())
		}
	}()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer client.Close()

	svc := insights.NewService(res.Store, insights.WithFetchTimeout(cfg.FetchTimeout))
	digest := worker.NewDigestJob(res.Store, svc, client, cfg.DigestConcurrency)

	if opts.digestMonth != "" {
		month, err := insights.ParseMonth(opts.digestMonth)
		if err != nil {
			return err
		}
		stats, err := digest.RunMonth(ctx, month)
		if err != nil {
			return err
		}
		if stats.Failed > 0 {
			return fmt.Errorf("digest for %s failed for %d of %d users", stats.Month, stats.Failed, stats.Users)
		}
		return nil
	}

	writer, err := newAuditWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	audit := worker.NewAuditWorker(writer)

	scheduler, err := worker.NewScheduler(cfg.DigestSchedule, digest, 30*time.Minute)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.ConsumeExpenseEvents(gctx, audit.HandleExpenseEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
	return nil
}

// newAuditWriter prefers the Google Sheet and falls back to logging events.
func newAuditWriter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.AuditWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, logging events instead")
		return sheets.NewLogWriter(logger.WithComponent(applog.ComponentSheets).Logger), nil
	}

	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	if err := client.EnsureHeader(ctx); err != nil {
		logger.Warn("Could not write audit sheet header", applog.FieldError, err.Error())
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
