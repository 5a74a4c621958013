// Command budget is the command-line front end for the household ledger.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"

	"github.com/spf13/cobra"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	configFile string
	logLevel   string

	cfg    *config.Config
	logger *applog.Logger
	now    func() time.Time
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&app{now: time.Now}).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "budget",
		Short: "Household ledger with recurring rules, reports and snapshots",
		Long: `budget records income and expenses, materializes recurring rules into
dated transactions, reports on the ledger and moves it in and out of JSON
snapshots.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "optional config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.rulesCmd(),
		a.processDueCmd(),
		a.summaryCmd(),
		a.balanceCmd(),
		a.reportCmd(),
		a.infoCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) init(_ *cobra.Command, _ []string) error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg.LogLevel)
	return nil
}

// processOnStart materializes due recurring rules once when PROCESS_ON_START
// is set. Failures are logged; the command carries on with what is stored.
func (a *app) processOnStart(ctx context.Context, b *backend.BackendResult) {
	if !a.cfg.ProcessOnStart {
		return
	}
	logger := a.logger.WithComponent(applog.ComponentRecurring)

	var (
		n   int
		err error
	)
	if a.cfg.CatchUp {
		n, err = b.Processor.CatchUp(ctx, a.now(), a.cfg.CatchUpMaxRounds)
	} else {
		n, err = b.Processor.ProcessDue(ctx, a.now())
	}
	if err != nil {
		logger.ErrorContext(ctx, "Startup recurring processing failed",
			applog.FieldOperation, applog.OpStartup, applog.FieldError, err)
		return
	}
	logger.InfoContext(ctx, "Startup recurring processing complete",
		applog.FieldOperation, applog.OpStartup, "processed", n)
}

// withLedgerView opens the ledger for a read command, bringing recurring
// rules up to date first.
func (a *app) withLedgerView(cmd *cobra.Command, fn func(*backend.BackendResult) error) error {
	return a.withBackend(cmd, func(b *backend.BackendResult) error {
		a.processOnStart(cmd.Context(), b)
		return fn(b)
	})
}

// withBackend opens the ledger for the duration of fn.
func (a *app) withBackend(cmd *cobra.Command, fn func(*backend.BackendResult) error) error {
	res, err := cli.InitBackend(cmd.Context(), a.logger.Logger, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := res.Cleanup(); cerr != nil {
			a.logger.ErrorContext(cmd.Context(), "Failed to close backend", applog.FieldError, cerr)
		}
	}()
	return fn(res)
}
