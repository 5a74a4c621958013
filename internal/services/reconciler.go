package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/snapshot"
	"budget/internal/storage"
)

// ImportMode selects how a snapshot is applied to the store.
type ImportMode int

const (
	// Merge adds only records without a duplicate already in the store.
	Merge ImportMode = iota
	// Replace clears transactions and rules before loading the snapshot.
	Replace
)

func (m ImportMode) String() string {
	if m == Replace {
		return "replace"
	}
	return "merge"
}

// ParseImportMode accepts "merge" or "replace" in any case.
func ParseImportMode(s string) (ImportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "merge", "":
		return Merge, nil
	case "replace":
		return Replace, nil
	default:
		return Merge, fmt.Errorf("%w: unknown import mode %q", core.ErrValidation, s)
	}
}

// ImportResult counts what an import did.
type ImportResult struct {
	TransactionsInserted int `json:"transactions_inserted"`
	TransactionsSkipped  int `json:"transactions_skipped"`
	RulesInserted        int `json:"rules_inserted"`
	RulesSkipped         int `json:"rules_skipped"`
}

// Reconciler exports the ledger to snapshots and loads snapshots back.
type Reconciler struct {
	store storage.Ledger
	now   func() time.Time
}

func NewReconciler(store storage.Ledger) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Export collects every transaction and every active rule.
func (r *Reconciler) Export(ctx context.Context) (snapshot.Snapshot, error) {
	txs, err := r.store.QueryTransactions(ctx, core.Filter{})
	if err != nil {
		return snapshot.Snapshot{}, core.NewStorageError("export transactions", err)
	}
	rules, err := r.store.ListActiveRecurringRules(ctx)
	if err != nil {
		return snapshot.Snapshot{}, core.NewStorageError("export recurring rules", err)
	}
	return snapshot.Snapshot{
		Transactions:   txs,
		RecurringRules: rules,
		ExportDate:     r.now().UTC(),
		Version:        snapshot.Version,
	}, nil
}

// ExportFile writes an export to path. Storage failures are returned as
// they are; anything that goes wrong with the file is an IOError.
func (r *Reconciler) ExportFile(ctx context.Context, path string) error {
	s, err := r.Export(ctx)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &core.IOError{Path: path, Err: err}
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return &core.IOError{Path: path, Err: err}
	}
	if err := snapshot.Encode(f, s); err != nil {
		f.Close()
		return &core.IOError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &core.IOError{Path: path, Err: err}
	}

	applog.For(ctx, applog.ComponentReconciler).InfoContext(ctx, "Snapshot exported",
		applog.FieldOperation, applog.OpExport,
		"path", path,
		"transactions", len(s.Transactions),
		"rules", len(s.RecurringRules))
	return nil
}

// ImportFile reads the snapshot at path and applies it with Import.
func (r *Reconciler) ImportFile(ctx context.Context, path string, mode ImportMode) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, &core.IOError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := snapshot.Decode(f)
	if err != nil {
		return ImportResult{}, &core.IOError{Path: path, Err: err}
	}

	res, err := r.Import(ctx, s, mode)
	var ioErr *core.IOError
	if errors.As(err, &ioErr) && ioErr.Path == "" {
		ioErr.Path = path
	}
	return res, err
}

// Import applies s to the store. Every record is checked first; a snapshot
// holding an invalid record is rejected before anything is written. Records
// are then written one by one with no rollback, so a storage failure part
// way leaves the records written so far in place.
//
// Merge skips a transaction when one with the same date, category and
// description exists, and a rule when an active one with the same
// description, type and frequency exists. Distinct records that share those
// fields collapse into one. Transactions are written oldest first so the
// store's fresh ids keep the snapshot's same-day order. Ids and creation
// times are assigned by the store.
func (r *Reconciler) Import(ctx context.Context, s snapshot.Snapshot, mode ImportMode) (ImportResult, error) {
	var res ImportResult

	if err := validateSnapshot(s); err != nil {
		return res, &core.IOError{Err: err}
	}

	txKeys := map[txKey]struct{}{}
	ruleKeys := map[ruleKey]struct{}{}

	switch mode {
	case Replace:
		if err := r.store.DeleteAllTransactions(ctx); err != nil {
			return res, core.NewStorageError("clear transactions", err)
		}
		if err := r.store.DeleteAllRecurringRules(ctx); err != nil {
			return res, core.NewStorageError("clear recurring rules", err)
		}
	case Merge:
		existing, err := r.store.QueryTransactions(ctx, core.Filter{})
		if err != nil {
			return res, core.NewStorageError("load transactions", err)
		}
		for _, t := range existing {
			txKeys[keyOfTransaction(t)] = struct{}{}
		}
		rules, err := r.store.ListActiveRecurringRules(ctx)
		if err != nil {
			return res, core.NewStorageError("load recurring rules", err)
		}
		for _, rule := range rules {
			ruleKeys[keyOfRule(rule)] = struct{}{}
		}
	default:
		return res, fmt.Errorf("%w: unknown import mode %d", core.ErrValidation, mode)
	}

	for _, t := range insertionOrder(s.Transactions) {
		if mode == Merge {
			k := keyOfTransaction(t)
			if _, dup := txKeys[k]; dup {
				res.TransactionsSkipped++
				continue
			}
			txKeys[k] = struct{}{}
		}
		if _, err := r.store.InsertTransaction(ctx, t); err != nil {
			return res, core.NewStorageError("import transaction", err)
		}
		res.TransactionsInserted++
	}

	for _, rule := range s.RecurringRules {
		if mode == Merge {
			k := keyOfRule(rule)
			if _, dup := ruleKeys[k]; dup {
				res.RulesSkipped++
				continue
			}
			ruleKeys[k] = struct{}{}
		}
		if err := r.importRule(ctx, rule); err != nil {
			return res, err
		}
		res.RulesInserted++
	}

	applog.For(ctx, applog.ComponentReconciler).InfoContext(ctx, "Snapshot imported",
		applog.FieldOperation, applog.OpImport,
		applog.FieldMode, mode.String(),
		"transactions_inserted", res.TransactionsInserted,
		"transactions_skipped", res.TransactionsSkipped,
		"rules_inserted", res.RulesInserted,
		"rules_skipped", res.RulesSkipped)

	return res, nil
}

// importRule inserts rule and restores the schedule state it carries.
func (r *Reconciler) importRule(ctx context.Context, rule core.RecurringRule) error {
	id, err := r.store.InsertRecurringRule(ctx, rule)
	if err != nil {
		return core.NewStorageError("import recurring rule", err)
	}
	if !rule.LastProcessed.IsZero() {
		if err := r.store.UpdateRecurringRuleLastProcessed(ctx, id, rule.LastProcessed); err != nil {
			return core.NewStorageError("import last processed", err)
		}
	}
	if !rule.Active {
		if err := r.store.SetRecurringRuleActive(ctx, id, false); err != nil {
			return core.NewStorageError("import rule state", err)
		}
	}
	return nil
}

// insertionOrder returns txs oldest first: by date, then id. Snapshots list
// newest first, so ties without ids keep their relative age once reversed.
func insertionOrder(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		out[len(txs)-1-i] = t
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func validateSnapshot(s snapshot.Snapshot) error {
	for i, t := range s.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
	}
	for i, rule := range s.RecurringRules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("recurring_transactions[%d]: %w", i, err)
		}
	}
	return nil
}

type txKey struct {
	date        string
	category    string
	description string
}

func keyOfTransaction(t core.Transaction) txKey {
	return txKey{date: t.Date.String(), category: t.Category, description: t.Description}
}

type ruleKey struct {
	description string
	typ         core.TransactionType
	frequency   core.Frequency
}

func keyOfRule(r core.RecurringRule) ruleKey {
	return ruleKey{description: r.Description, typ: r.Type, frequency: r.Frequency}
}
