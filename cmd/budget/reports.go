package main

import (
	"fmt"

	"budget/internal/backend"
	"budget/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) summaryCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals, top expense categories and per-person breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withLedgerView(cmd, func(b *backend.BackendResult) error {
				s, err := b.Query.Summarize(cmd.Context(), f)
				if err != nil {
					return err
				}
				return printSummary(cmd.OutOrStdout(), s)
			})
		},
	}
	ff.bind(cmd)
	return cmd
}

func (a *app) balanceCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Running balance, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withLedgerView(cmd, func(b *backend.BackendResult) error {
				points, err := b.Query.RunningBalance(cmd.Context(), f)
				if err != nil {
					return err
				}
				return printBalance(cmd.OutOrStdout(), points)
			})
		},
	}
	ff.bind(cmd)
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:       "report <monthly|category|person>",
		Short:     "Print a ledger report",
		Long:      "monthly covers the current month up to today. category and person accept the usual filters.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"monthly", "category", "person"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withLedgerView(cmd, func(b *backend.BackendResult) error {
				ctx, w := cmd.Context(), cmd.OutOrStdout()
				switch args[0] {
				case "monthly":
					r, err := b.Query.MonthlyReport(ctx, a.now())
					if err != nil {
						return err
					}
					return printMonthlyReport(w, r)
				case "category":
					rows, err := b.Query.CategoryReport(ctx, f)
					if err != nil {
						return err
					}
					return printCategoryReport(w, rows)
				case "person":
					rows, err := b.Query.PersonReport(ctx, f)
					if err != nil {
						return err
					}
					return printPersonReport(w, rows)
				default:
					return fmt.Errorf("%w: unknown report %q", core.ErrValidation, args[0])
				}
			})
		},
	}
	ff.bind(cmd)
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Counts, totals and the most recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLedgerView(cmd, func(b *backend.BackendResult) error {
				info, err := b.Query.Info(cmd.Context())
				if err != nil {
					return err
				}
				return printInfo(cmd.OutOrStdout(), info)
			})
		},
	}
}
