package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

// Store is a process-local Ledger. Contents are lost on exit.
type Store struct {
	mu     sync.Mutex
	txs    []core.Transaction
	rules  []core.RecurringRule
	nextTx int64
	nextRl int64
	now    func() time.Time
}

var _ storage.Ledger = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTx++
	t.ID = s.nextTx
	t.CreatedAt = s.now().UTC()
	s.txs = append(s.txs, t)
	return t.ID, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

func (s *Store) QueryTransactions(_ context.Context, f core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range s.txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	core.SortLedger(out)
	return out, nil
}

func (s *Store) DeleteAllTransactions(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = nil
	return nil
}

func (s *Store) InsertRecurringRule(_ context.Context, r core.RecurringRule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRl++
	r.ID = s.nextRl
	r.Active = true
	r.LastProcessed = core.Date{}
	r.CreatedAt = s.now().UTC()
	s.rules = append(s.rules, r)
	return r.ID, nil
}

func (s *Store) ListActiveRecurringRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.RecurringRule{}
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListRecurringRules(_ context.Context) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RecurringRule{}, s.rules...), nil
}

func (s *Store) UpdateRecurringRuleLastProcessed(_ context.Context, id int64, d core.Date) error {
	return s.updateRule(id, func(r *core.RecurringRule) { r.LastProcessed = d })
}

func (s *Store) SetRecurringRuleActive(_ context.Context, id int64, active bool) error {
	return s.updateRule(id, func(r *core.RecurringRule) { r.Active = active })
}

func (s *Store) updateRule(id int64, fn func(*core.RecurringRule)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].ID == id {
			fn(&s.rules[i])
			return nil
		}
	}
	return fmt.Errorf("recurring rule %d: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteAllRecurringRules(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
	return nil
}

func (s *Store) Close() error { return nil }
