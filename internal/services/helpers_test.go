package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/storage/memory"

	"github.com/shopspring/decimal"
)

var errDiskFull = errors.New("disk full")

// recordingPublisher remembers every published id.
type recordingPublisher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, id int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, id)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.ids...)
}

// faultyStore fails selected writes after a number of successful ones.
type faultyStore struct {
	*memory.Store
	insertsBeforeFailure int
	failMarker           bool
}

func (s *faultyStore) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if s.insertsBeforeFailure == 0 {
		return 0, core.NewStorageError("insert transaction", errDiskFull)
	}
	s.insertsBeforeFailure--
	return s.Store.InsertTransaction(ctx, t)
}

func (s *faultyStore) UpdateRecurringRuleLastProcessed(ctx context.Context, id int64, d core.Date) error {
	if s.failMarker {
		return core.NewStorageError("update last processed", errDiskFull)
	}
	return s.Store.UpdateRecurringRuleLastProcessed(ctx, id, d)
}

func at(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}

func newRule(description string, freq core.Frequency, start core.Date) core.RecurringRule {
	return core.RecurringRule{
		Description: description,
		Category:    "Bills",
		Amount:      decimal.RequireFromString("29.99"),
		Type:        core.Expense,
		Person:      "Person 1",
		Frequency:   freq,
		StartDate:   start,
	}
}

func newTransaction(date core.Date, description, category string, typ core.TransactionType, amount string) core.Transaction {
	return core.Transaction{
		Date:        date,
		Description: description,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		Type:        typ,
		Person:      "Person 1",
	}
}

func mustAddRule(t *testing.T, ledger *LedgerService, r core.RecurringRule) int64 {
	t.Helper()
	id, err := ledger.AddRecurringRule(context.Background(), r)
	if err != nil {
		t.Fatalf("add rule: %v", err)
	}
	return id
}

func mustAddTransaction(t *testing.T, ledger *LedgerService, tx core.Transaction) int64 {
	t.Helper()
	id, err := ledger.AddTransaction(context.Background(), tx)
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	return id
}

func ruleByID(t *testing.T, store *memory.Store, id int64) core.RecurringRule {
	t.Helper()
	rules, err := store.ListRecurringRules(context.Background())
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	for _, r := range rules {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("rule %d not found", id)
	return core.RecurringRule{}
}
