package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryShare is an expense category with its share of total expenses.
type CategoryShare struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// MonthlyReport covers the first day of a month up to a cutoff date.
type MonthlyReport struct {
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	From               Date            `json:"from"`
	To                 Date            `json:"to"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	NetSavings         decimal.Decimal `json:"net_savings"`
	Categories         []CategoryShare `json:"categories"`
	TransactionCount   int             `json:"transaction_count"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}

// CategoryReportRow is one line of the all-time category analysis.
type CategoryReportRow struct {
	Name string `json:"name"`
	CategoryStat
}

// PersonReportRow is one line of the per-person report.
type PersonReportRow struct {
	Person        string           `json:"person"`
	Income        decimal.Decimal  `json:"income"`
	Expenses      decimal.Decimal  `json:"expenses"`
	Net           decimal.Decimal  `json:"net"`
	Transactions  int              `json:"transactions"`
	TopCategories []CategoryAmount `json:"top_categories"`
}

// LedgerInfo is a snapshot of the store's contents for status displays.
type LedgerInfo struct {
	Transactions  int             `json:"transactions"`
	ActiveRules   int             `json:"active_rules"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetBalance    decimal.Decimal `json:"net_balance"`
	Recent        []Transaction   `json:"recent"`
}

const (
	PersonTopCategories = 3
	RecentTransactions  = 5
)

var hundred = decimal.NewFromInt(100)

// BuildMonthlyReport summarizes txs, which the caller has already limited
// to [from, to].
func BuildMonthlyReport(from, to Date, txs []Transaction) MonthlyReport {
	income := TotalIncome(txs)
	expenses := TotalExpenses(txs)

	r := MonthlyReport{
		Year:               from.Year(),
		Month:              from.Month(),
		From:               from,
		To:                 to,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		NetSavings:         income.Sub(expenses),
		Categories:         []CategoryShare{},
		TransactionCount:   len(txs),
		AverageTransaction: decimal.Zero,
	}

	for _, c := range TopCategories(GroupByCategory(txs, Expense), 0) {
		pct := decimal.Zero
		if expenses.IsPositive() {
			pct = c.Amount.Div(expenses).Mul(hundred).Round(1)
		}
		r.Categories = append(r.Categories, CategoryShare{Name: c.Name, Amount: c.Amount, Percentage: pct})
	}
	if len(txs) > 0 {
		r.AverageTransaction = income.Add(expenses).Div(decimal.NewFromInt(int64(len(txs))))
	}
	return r
}

// BuildCategoryReport orders CategoryStats by total descending, ties by name.
func BuildCategoryReport(txs []Transaction) []CategoryReportRow {
	stats := CategoryStats(txs)
	rows := make([]CategoryReportRow, 0, len(stats))
	for name, s := range stats {
		rows = append(rows, CategoryReportRow{Name: name, CategoryStat: s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Total.Cmp(rows[j].Total); c != 0 {
			return c > 0
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// BuildPersonReport groups txs per person, sorted by person name.
func BuildPersonReport(txs []Transaction) []PersonReportRow {
	byPerson := make(map[string][]Transaction)
	for _, t := range txs {
		byPerson[t.Person] = append(byPerson[t.Person], t)
	}

	rows := make([]PersonReportRow, 0, len(byPerson))
	for person, own := range byPerson {
		income := TotalIncome(own)
		expenses := TotalExpenses(own)
		rows = append(rows, PersonReportRow{
			Person:        person,
			Income:        income,
			Expenses:      expenses,
			Net:           income.Sub(expenses),
			Transactions:  len(own),
			TopCategories: TopCategories(GroupByCategory(own, Expense), PersonTopCategories),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Person < rows[j].Person })
	return rows
}

// BuildLedgerInfo expects txs in ledger order (newest first).
func BuildLedgerInfo(txs []Transaction, activeRules int) LedgerInfo {
	recent := txs
	if len(recent) > RecentTransactions {
		recent = recent[:RecentTransactions]
	}
	income := TotalIncome(txs)
	expenses := TotalExpenses(txs)
	return LedgerInfo{
		Transactions:  len(txs),
		ActiveRules:   activeRules,
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetBalance:    income.Sub(expenses),
		Recent:        append([]Transaction(nil), recent...),
	}
}
