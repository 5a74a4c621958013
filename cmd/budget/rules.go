package main

import (
	"fmt"
	"strconv"
	"strings"

	"budget/internal/backend"
	"budget/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage recurring rules",
	}
	cmd.AddCommand(a.rulesAddCmd(), a.rulesListCmd(), a.rulesSetActiveCmd(false), a.rulesSetActiveCmd(true))
	return cmd
}

func (a *app) rulesAddCmd() *cobra.Command {
	var desc, category, amount, typ, person, freq, start, end string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring rule",
		Example: `  budget rules add --description Rent --category Housing --amount 800 \
    --type expense --person Both --frequency monthly --start 2024-01-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule, err := parseRule(desc, category, amount, typ, person, freq, start, end)
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				id, err := b.Ledger.AddRecurringRule(cmd.Context(), rule)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s rule #%d: %s %s from %s\n",
					rule.Frequency, id, rule.Description, rule.Amount.StringFixed(2), rule.StartDate)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, unsigned")
	cmd.Flags().StringVarP(&typ, "type", "t", "expense", "income or expense")
	cmd.Flags().StringVarP(&person, "person", "p", "", "person")
	cmd.Flags().StringVarP(&freq, "frequency", "f", "monthly", "daily, weekly, bi-weekly, monthly or yearly")
	cmd.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "optional end date YYYY-MM-DD")
	cmd.PreRunE = func(*cobra.Command, []string) error {
		if start == "" {
			start = core.DateOf(a.now()).String()
		}
		return nil
	}
	return cmd
}

func parseRule(desc, category, amount, typ, person, freq, start, end string) (core.RecurringRule, error) {
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	tt, err := core.ParseTransactionType(typ)
	if err != nil {
		return core.RecurringRule{}, err
	}
	f, err := core.ParseFrequency(freq)
	if err != nil {
		return core.RecurringRule{}, err
	}
	s, err := core.ParseDate(start)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("start date: %w", err)
	}
	var e core.Date
	if end != "" {
		if e, err = core.ParseDate(end); err != nil {
			return core.RecurringRule{}, fmt.Errorf("end date: %w", err)
		}
	}
	return core.RecurringRule{
		Description: strings.TrimSpace(desc),
		Category:    strings.TrimSpace(category),
		Amount:      amt,
		Type:        tt,
		Person:      strings.TrimSpace(person),
		Frequency:   f,
		StartDate:   s,
		EndDate:     e,
	}, nil
}

func (a *app) rulesListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				rules, err := b.Ledger.ListRecurringRules(cmd.Context(), all)
				if err != nil {
					return err
				}
				return printRules(cmd.OutOrStdout(), rules)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include paused rules")
	return cmd
}

func (a *app) rulesSetActiveCmd(active bool) *cobra.Command {
	use, short, verb := "pause <id>", "Pause a recurring rule", "Paused"
	if active {
		use, short, verb = "resume <id>", "Resume a paused recurring rule", "Resumed"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("%w: invalid rule id %q", core.ErrValidation, args[0])
			}
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				if err := b.Ledger.SetRecurringRuleActive(cmd.Context(), id, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s rule #%d\n", verb, id)
				return nil
			})
		},
	}
}

func (a *app) processDueCmd() *cobra.Command {
	var (
		catchUp   bool
		maxRounds int
	)
	cmd := &cobra.Command{
		Use:   "process-due",
		Short: "Materialize recurring rules that are due today",
		Long: `process-due creates at most one transaction per due rule. With
--catch-up it repeats until no rule is due, filling in every missed period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				var (
					n   int
					err error
				)
				if catchUp {
					n, err = b.Processor.CatchUp(cmd.Context(), a.now(), maxRounds)
				} else {
					n, err = b.Processor.ProcessDue(cmd.Context(), a.now())
				}
				if n > 0 || err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Processed %d recurring transaction(s)\n", n)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&catchUp, "catch-up", false, "repeat until every missed period is filled in")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "bound catch-up rounds (0 = unbounded)")
	return cmd
}
