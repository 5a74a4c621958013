package storage

import (
	"context"

	"budget/internal/core"
)

// Ledger is the durable store of transactions and recurring rules. It holds
// no business rules; each call is atomic on its own and nothing spans calls.
type Ledger interface {
	// InsertTransaction stores t (ID and CreatedAt are assigned by the store).
	InsertTransaction(ctx context.Context, t core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	// QueryTransactions returns matches ordered by date, then id, descending.
	QueryTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error)
	DeleteAllTransactions(ctx context.Context) error

	// InsertRecurringRule stores r as active with no last-processed marker.
	InsertRecurringRule(ctx context.Context, r core.RecurringRule) (int64, error)
	// ListActiveRecurringRules returns active rules ordered by id.
	ListActiveRecurringRules(ctx context.Context) ([]core.RecurringRule, error)
	// ListRecurringRules returns every rule, active or not, ordered by id.
	ListRecurringRules(ctx context.Context) ([]core.RecurringRule, error)
	UpdateRecurringRuleLastProcessed(ctx context.Context, id int64, d core.Date) error
	SetRecurringRuleActive(ctx context.Context, id int64, active bool) error
	DeleteAllRecurringRules(ctx context.Context) error

	Close() error
}
