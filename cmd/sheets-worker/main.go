// Command sheets-worker mirrors ledger transactions into a Google Sheet.
// It consumes TransactionCreated messages and, at startup, backfills any
// ledger rows the sheet is missing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
	gsheet "budget/internal/sheets/google"
	"budget/internal/storage"
	"budget/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configFile := flag.String("config", "", "optional config file")
	flag.Parse()

	cli.LoadEnvFile()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(applog.ComponentWorker)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	parent, stop := context.WithCancel(context.Background())
	defer stop()
	ctx, done := cli.GracefulShutdown(parent, logger.Logger, 30*time.Second, nil)
	logger.InfoContext(ctx, "Starting sheets-worker", "queue", cfg.AMQPQueue, "sheet", cfg.GoogleSheetName)

	ledger, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", cfg.SQLiteDBPath, err)
	}
	defer ledger.Close()

	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(ledger, sheetsClient)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.BackfillOnStart {
		g.Go(func() error {
			logger.InfoContext(gctx, "Performing startup backfill")
			if _, err := syncWorker.BackfillMissing(gctx); err != nil && !errors.Is(err, context.Canceled) {
				// Messages still flow; a failed backfill is retried on the next start.
				logger.ErrorContext(gctx, "Startup backfill failed", applog.FieldError, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := amqpClient.ConsumeTransactionCreated(gctx, syncWorker.HandleTransactionCreated)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	stop()
	<-done
	if err != nil {
		return fmt.Errorf("sheets-worker: %w", err)
	}
	logger.Info("Worker shutdown complete")
	return nil
}
