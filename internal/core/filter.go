package core

import (
	"sort"
)

// Filter is a conjunction of optional predicates over transactions.
// Zero-valued fields are not applied.
type Filter struct {
	StartDate Date
	EndDate   Date
	Category  string
	Person    string
	Type      TransactionType
}

// Matches reports whether t satisfies every predicate set on f.
func (f Filter) Matches(t Transaction) bool {
	if !f.StartDate.IsZero() && t.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && t.Date.After(f.EndDate) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Person != "" && t.Person != f.Person {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}

func (f Filter) Validate() error {
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SortLedger orders transactions newest first: date descending, then id
// descending so the latest inserted same-day row comes first.
func SortLedger(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
}
