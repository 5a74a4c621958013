package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/services"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printTransactions(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("No transactions."))
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tPERSON\tDESCRIPTION")
	for _, t := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Type, t.Signed().StringFixed(2), t.Category, t.Person, t.Description)
	}
	return tw.Flush()
}

func printRules(w io.Writer, rules []core.RecurringRule) error {
	if len(rules) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("No recurring rules."))
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFREQUENCY\tTYPE\tAMOUNT\tSTART\tEND\tLAST PROCESSED\tSTATUS\tDESCRIPTION")
	for _, r := range rules {
		status := "active"
		if !r.Active {
			status = "paused"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Frequency, r.Type, r.Amount.StringFixed(2),
			r.StartDate, orDash(r.EndDate), orDash(r.LastProcessed), status, r.Description)
	}
	return tw.Flush()
}

func orDash(d core.Date) string {
	if d.IsEmpty() {
		return "-"
	}
	return d.String()
}

func printSummary(w io.Writer, s core.Summary) error {
	fmt.Fprintln(w, cli.FormatTitle("Summary"))
	tw := newTable(w)
	fmt.Fprintf(tw, "Income\t%s\n", s.TotalIncome.StringFixed(2))
	fmt.Fprintf(tw, "Expenses\t%s\n", s.TotalExpenses.StringFixed(2))
	fmt.Fprintf(tw, "Net\t%s\n", cli.FormatSigned(s.NetBalance))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.TopCategories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, cli.FormatTitle("Top expense categories"))
		tw = newTable(w)
		for _, c := range s.TopCategories {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Amount.StringFixed(2))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(s.ByPerson) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, cli.FormatTitle("By person"))
		people := make([]string, 0, len(s.ByPerson))
		for p := range s.ByPerson {
			people = append(people, p)
		}
		sort.Strings(people)
		tw = newTable(w)
		fmt.Fprintln(tw, "PERSON\tINCOME\tEXPENSES\tNET")
		for _, p := range people {
			pt := s.ByPerson[p]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p, pt.Income.StringFixed(2), pt.Expenses.StringFixed(2), cli.FormatSigned(pt.Net()))
		}
		return tw.Flush()
	}
	return nil
}

func printBalance(w io.Writer, points []core.BalancePoint) error {
	if len(points) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("No transactions."))
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tBALANCE")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\n", p.Date, p.Balance.StringFixed(2))
	}
	return tw.Flush()
}

func printMonthlyReport(w io.Writer, r core.MonthlyReport) error {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Monthly report %04d-%02d", r.Year, r.Month)))
	fmt.Fprintln(w, cli.SubtleStyle.Render(fmt.Sprintf("%s to %s", r.From, r.To)))
	tw := newTable(w)
	fmt.Fprintf(tw, "Income\t%s\n", r.TotalIncome.StringFixed(2))
	fmt.Fprintf(tw, "Expenses\t%s\n", r.TotalExpenses.StringFixed(2))
	fmt.Fprintf(tw, "Net savings\t%s\n", cli.FormatSigned(r.NetSavings))
	fmt.Fprintf(tw, "Transactions\t%d\n", r.TransactionCount)
	fmt.Fprintf(tw, "Average\t%s\n", r.AverageTransaction.StringFixed(2))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(r.Categories) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tSHARE")
	for _, c := range r.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\n", c.Name, c.Amount.StringFixed(2), c.Percentage.StringFixed(1))
	}
	return tw.Flush()
}

func printCategoryReport(w io.Writer, rows []core.CategoryReportRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("No transactions."))
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tTOTAL\tAVERAGE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", r.Name, r.Count, r.Total.StringFixed(2), r.Average.StringFixed(2))
	}
	return tw.Flush()
}

func printPersonReport(w io.Writer, rows []core.PersonReportRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, cli.SubtleStyle.Render("No transactions."))
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "PERSON\tINCOME\tEXPENSES\tNET\tCOUNT\tTOP CATEGORIES")
	for _, r := range rows {
		names := make([]string, len(r.TopCategories))
		for i, c := range r.TopCategories {
			names[i] = c.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", r.Person,
			r.Income.StringFixed(2), r.Expenses.StringFixed(2), cli.FormatSigned(r.Net),
			r.Transactions, strings.Join(names, ", "))
	}
	return tw.Flush()
}

func printInfo(w io.Writer, info core.LedgerInfo) error {
	fmt.Fprintln(w, cli.FormatTitle("Ledger"))
	tw := newTable(w)
	fmt.Fprintf(tw, "Transactions\t%d\n", info.Transactions)
	fmt.Fprintf(tw, "Active rules\t%d\n", info.ActiveRules)
	fmt.Fprintf(tw, "Income\t%s\n", info.TotalIncome.StringFixed(2))
	fmt.Fprintf(tw, "Expenses\t%s\n", info.TotalExpenses.StringFixed(2))
	fmt.Fprintf(tw, "Net\t%s\n", cli.FormatSigned(info.NetBalance))
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(info.Recent) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.FormatTitle("Recent"))
	return printTransactions(w, info.Recent)
}

func printImportResult(w io.Writer, mode services.ImportMode, r services.ImportResult) {
	fmt.Fprintln(w, cli.SuccessStyle.Render(fmt.Sprintf("Import (%s) complete", mode)))
	fmt.Fprintf(w, "  transactions: %d added, %d skipped\n", r.TransactionsInserted, r.TransactionsSkipped)
	fmt.Fprintf(w, "  rules:        %d added, %d skipped\n", r.RulesInserted, r.RulesSkipped)
}
