package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"budget/internal/backend"
	apphttp "budget/internal/http"
	applog "budget/internal/log"
	"budget/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API and process recurring rules on an interval",
		Long: `serve exposes the ledger over HTTP on PORT. When PROCESS_INTERVAL is
non-zero, due recurring rules are materialized on that interval, and once at
startup when PROCESS_ON_START is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				return a.serve(cmd.Context(), b)
			})
		},
	}
}

func (a *app) serve(ctx context.Context, b *backend.BackendResult) error {
	logger := a.logger.WithComponent(applog.ComponentHTTP)

	srv := apphttp.NewServer(":"+a.cfg.Port, apphttp.Services{
		Ledger:     b.Ledger,
		Processor:  b.Processor,
		Query:      b.Query,
		Reconciler: b.Reconciler,
	}, logger)

	var runner *services.DueRunner
	if a.cfg.ProcessInterval > 0 {
		runner = services.NewDueRunner(b.Processor, services.DueRunnerConfig{
			Interval:  a.cfg.ProcessInterval,
			CatchUp:   a.cfg.CatchUp,
			MaxRounds: a.cfg.CatchUpMaxRounds,
		})
	}

	a.processOnStart(ctx, b)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gctx, "Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if runner != nil {
		g.Go(func() error {
			if err := runner.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(context.Background(), "Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if runner != nil {
			if err := runner.Stop(shutdownCtx); err != nil {
				logger.WarnContext(shutdownCtx, "Due runner did not stop cleanly", applog.FieldError, err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
