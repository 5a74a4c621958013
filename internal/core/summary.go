package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregates below are pure functions of the slice they are given. Nothing
// is cached; callers pass a freshly queried set each time.

// BalancePoint is one step of a running balance.
type BalancePoint struct {
	Date    Date            `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PersonTotals holds per-person income and expense sums.
type PersonTotals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

func (p PersonTotals) Net() decimal.Decimal {
	return p.Income.Sub(p.Expenses)
}

// CategoryStat is count, total and mean amount for one category.
type CategoryStat struct {
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
}

// Summary is the overview shown next to a filtered transaction list.
type Summary struct {
	TotalIncome   decimal.Decimal         `json:"total_income"`
	TotalExpenses decimal.Decimal         `json:"total_expenses"`
	NetBalance    decimal.Decimal         `json:"net_balance"`
	TopCategories []CategoryAmount        `json:"top_categories"`
	ByPerson      map[string]PersonTotals `json:"by_person"`
}

// SummaryTopCategories is how many expense categories a Summary lists.
const SummaryTopCategories = 5

func sumByType(txs []Transaction, typ TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Type == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalIncome sums the magnitudes of income transactions.
func TotalIncome(txs []Transaction) decimal.Decimal {
	return sumByType(txs, Income)
}

// TotalExpenses sums the magnitudes of expense transactions.
func TotalExpenses(txs []Transaction) decimal.Decimal {
	return sumByType(txs, Expense)
}

// NetBalance is TotalIncome - TotalExpenses.
func NetBalance(txs []Transaction) decimal.Decimal {
	return TotalIncome(txs).Sub(TotalExpenses(txs))
}

// RunningBalance re-sorts txs ascending by date, keeping the given relative
// order for same-day rows, and accumulates the signed amounts. The input
// slice is not modified.
func RunningBalance(txs []Transaction) []BalancePoint {
	if len(txs) == 0 {
		return []BalancePoint{}
	}
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	points := make([]BalancePoint, 0, len(ordered))
	balance := decimal.Zero
	for _, t := range ordered {
		balance = balance.Add(t.Signed())
		points = append(points, BalancePoint{Date: t.Date, Balance: balance})
	}
	return points
}

// GroupByCategory sums magnitudes per category for transactions of typ.
func GroupByCategory(txs []Transaction, typ TransactionType) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// TopCategories orders a category breakdown by amount descending, ties by
// name, and keeps at most n entries (all when n <= 0).
func TopCategories(byCategory map[string]decimal.Decimal, n int) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(byCategory))
	for name, amount := range byCategory {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GroupByPerson sums income and expenses per person.
func GroupByPerson(txs []Transaction) map[string]PersonTotals {
	out := make(map[string]PersonTotals)
	for _, t := range txs {
		p := out[t.Person]
		if t.Type == Income {
			p.Income = p.Income.Add(t.Amount)
		} else {
			p.Expenses = p.Expenses.Add(t.Amount)
		}
		out[t.Person] = p
	}
	return out
}

// CategoryStats computes count, total and average per category over all
// transactions regardless of type.
func CategoryStats(txs []Transaction) map[string]CategoryStat {
	out := make(map[string]CategoryStat)
	for _, t := range txs {
		s := out[t.Category]
		s.Count++
		s.Total = s.Total.Add(t.Amount)
		out[t.Category] = s
	}
	for name, s := range out {
		s.Average = s.Total.Div(decimal.NewFromInt(int64(s.Count)))
		out[name] = s
	}
	return out
}

// Summarize builds the standard overview of a result set.
func Summarize(txs []Transaction) Summary {
	income := TotalIncome(txs)
	expenses := TotalExpenses(txs)
	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		NetBalance:    income.Sub(expenses),
		TopCategories: TopCategories(GroupByCategory(txs, Expense), SummaryTopCategories),
		ByPerson:      GroupByPerson(txs),
	}
}
