package services

import (
	"context"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

// QueryService reads the ledger and derives aggregates. Every call reads
// the store afresh; nothing is cached between calls.
type QueryService struct {
	store storage.Ledger
}

func NewQueryService(store storage.Ledger) *QueryService {
	return &QueryService{store: store}
}

// Query returns the transactions matching f, newest first.
func (s *QueryService) Query(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return []core.Transaction{}, nil
	}
	txs, err := s.store.QueryTransactions(ctx, f)
	if err != nil {
		return nil, core.NewStorageError("query transactions", err)
	}
	return txs, nil
}

func (s *QueryService) Summarize(ctx context.Context, f core.Filter) (core.Summary, error) {
	txs, err := s.Query(ctx, f)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(txs), nil
}

func (s *QueryService) RunningBalance(ctx context.Context, f core.Filter) ([]core.BalancePoint, error) {
	txs, err := s.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.RunningBalance(txs), nil
}

// MonthlyReport covers the first of now's month through now.
func (s *QueryService) MonthlyReport(ctx context.Context, now time.Time) (core.MonthlyReport, error) {
	to := core.DateOf(now)
	from := core.NewDate(to.Year(), to.Month(), 1)
	txs, err := s.Query(ctx, core.Filter{StartDate: from, EndDate: to})
	if err != nil {
		return core.MonthlyReport{}, err
	}
	return core.BuildMonthlyReport(from, to, txs), nil
}

func (s *QueryService) CategoryReport(ctx context.Context, f core.Filter) ([]core.CategoryReportRow, error) {
	txs, err := s.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.BuildCategoryReport(txs), nil
}

func (s *QueryService) PersonReport(ctx context.Context, f core.Filter) ([]core.PersonReportRow, error) {
	txs, err := s.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.BuildPersonReport(txs), nil
}

// Info describes the whole ledger and the number of active rules.
func (s *QueryService) Info(ctx context.Context) (core.LedgerInfo, error) {
	txs, err := s.Query(ctx, core.Filter{})
	if err != nil {
		return core.LedgerInfo{}, err
	}
	rules, err := s.store.ListActiveRecurringRules(ctx)
	if err != nil {
		return core.LedgerInfo{}, core.NewStorageError("list active recurring rules", err)
	}
	return core.BuildLedgerInfo(txs, len(rules)), nil
}
