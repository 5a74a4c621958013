package main

import (
	"fmt"
	"strings"

	"budget/internal/backend"
	"budget/internal/core"

	"github.com/spf13/cobra"
)

func (a *app) addCmd() *cobra.Command {
	var (
		date, desc, category, amount, typ, person string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  budget add --type expense --amount 54.20 --category Food \
    --description Groceries --person "Person 1" --date 2024-03-02`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date == "" {
				date = core.DateOf(a.now()).String()
			}
			t, err := parseTransaction(date, desc, category, amount, typ, person)
			if err != nil {
				return err
			}
			return a.withBackend(cmd, func(b *backend.BackendResult) error {
				id, err := b.Ledger.AddTransaction(cmd.Context(), t)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s #%d: %s %s on %s\n",
					strings.ToLower(string(t.Type)), id, t.Description, t.Amount.StringFixed(2), t.Date)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount, unsigned (12.34 or 12,34)")
	cmd.Flags().StringVarP(&typ, "type", "t", "expense", "income or expense")
	cmd.Flags().StringVarP(&person, "person", "p", "", "person")
	return cmd
}

func parseTransaction(date, desc, category, amount, typ, person string) (core.Transaction, error) {
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tt, err := core.ParseTransactionType(typ)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Date:        d,
		Description: strings.TrimSpace(desc),
		Category:    strings.TrimSpace(category),
		Amount:      amt,
		Type:        tt,
		Person:      strings.TrimSpace(person),
	}, nil
}

// filterFlags binds the query predicates shared by list and the reports.
type filterFlags struct {
	start, end, category, person, typ string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date YYYY-MM-DD (inclusive)")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.person, "person", "", "person")
	cmd.Flags().StringVar(&f.typ, "type", "", "income or expense")
}

func (f *filterFlags) filter() (core.Filter, error) {
	var out core.Filter
	var err error
	if f.start != "" {
		if out.StartDate, err = core.ParseDate(f.start); err != nil {
			return core.Filter{}, err
		}
	}
	if f.end != "" {
		if out.EndDate, err = core.ParseDate(f.end); err != nil {
			return core.Filter{}, err
		}
	}
	if f.typ != "" {
		if out.Type, err = core.ParseTransactionType(f.typ); err != nil {
			return core.Filter{}, err
		}
	}
	out.Category = strings.TrimSpace(f.category)
	out.Person = strings.TrimSpace(f.person)
	return out, nil
}

func (a *app) listCmd() *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			return a.withLedgerView(cmd, func(b *backend.BackendResult) error {
				txs, err := b.Query.Query(cmd.Context(), f)
				if err != nil {
					return err
				}
				return printTransactions(cmd.OutOrStdout(), txs)
			})
		},
	}
	ff.bind(cmd)
	return cmd
}
