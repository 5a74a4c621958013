package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"

	_ "modernc.org/sqlite"
)

const transactionColumns = "id, date, description, category, amount, type, person, created_at"

const ruleColumns = "id, description, category, amount, type, person, frequency, start_date, end_date, last_processed, active, created_at"

// SQLiteRepository is the Ledger backed by a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Ledger = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, description, category, amount, type, person) VALUES (?, ?, ?, ?, ?, ?)`,
		dateArg(t.Date), t.Description, t.Category, t.Amount.String(), string(t.Type), t.Person)
	if err != nil {
		return 0, core.NewStorageError("insert transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.NewStorageError("insert transaction", err)
	}

	applog.For(ctx, applog.ComponentStorage).DebugContext(ctx, "Transaction saved to SQLite",
		applog.FieldTransactionID, id,
		"date", t.Date.String(),
		"type", t.Type,
		applog.FieldAmount, t.Amount.String())

	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("get transaction", err)
	}
	return t, nil
}

func (r *SQLiteRepository) QueryTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.StartDate.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, dateArg(f.StartDate))
	}
	if !f.EndDate.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, dateArg(f.EndDate))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Person != "" {
		where = append(where, "person = ?")
		args = append(args, f.Person)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}

	query := "SELECT " + transactionColumns + " FROM transactions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStorageError("query transactions", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, core.NewStorageError("scan transaction", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("query transactions", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) DeleteAllTransactions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return core.NewStorageError("delete transactions", err)
	}
	return nil
}

func (r *SQLiteRepository) InsertRecurringRule(ctx context.Context, rule core.RecurringRule) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (description, category, amount, type, person, frequency, start_date, end_date, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		rule.Description, rule.Category, rule.Amount.String(), string(rule.Type), rule.Person,
		string(rule.Frequency), dateArg(rule.StartDate), dateArg(rule.EndDate))
	if err != nil {
		return 0, core.NewStorageError("insert recurring rule", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, core.NewStorageError("insert recurring rule", err)
	}

	applog.For(ctx, applog.ComponentStorage).DebugContext(ctx, "Recurring rule saved to SQLite",
		applog.FieldRuleID, id,
		applog.FieldDescription, rule.Description,
		"frequency", rule.Frequency)

	return id, nil
}

func (r *SQLiteRepository) ListActiveRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	return r.listRules(ctx, "SELECT "+ruleColumns+" FROM recurring_transactions WHERE active = 1 ORDER BY id")
}

func (r *SQLiteRepository) ListRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	return r.listRules(ctx, "SELECT "+ruleColumns+" FROM recurring_transactions ORDER BY id")
}

func (r *SQLiteRepository) listRules(ctx context.Context, query string) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.NewStorageError("list recurring rules", err)
	}
	defer rows.Close()

	rules := []core.RecurringRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, core.NewStorageError("scan recurring rule", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("list recurring rules", err)
	}
	return rules, nil
}

func (r *SQLiteRepository) UpdateRecurringRuleLastProcessed(ctx context.Context, id int64, d core.Date) error {
	return r.updateRule(ctx, "update last processed", id,
		"UPDATE recurring_transactions SET last_processed = ? WHERE id = ?", dateArg(d), id)
}

func (r *SQLiteRepository) SetRecurringRuleActive(ctx context.Context, id int64, active bool) error {
	flag := 0
	if active {
		flag = 1
	}
	return r.updateRule(ctx, "set rule active", id,
		"UPDATE recurring_transactions SET active = ? WHERE id = ?", flag, id)
}

func (r *SQLiteRepository) updateRule(ctx context.Context, op string, id int64, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.NewStorageError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewStorageError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("recurring rule %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllRecurringRules(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM recurring_transactions"); err != nil {
		return core.NewStorageError("delete recurring rules", err)
	}
	return nil
}

// dateArg binds a Date as YYYY-MM-DD text, or NULL when unset.
func dateArg(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		typ       string
		createdAt any
	)
	if err := s.Scan(&t.ID, &t.Date, &t.Description, &t.Category, &t.Amount, &typ, &t.Person, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.CreatedAt = parseTimestamp(createdAt)
	return t, nil
}

func scanRule(s scanner) (core.RecurringRule, error) {
	var (
		rule      core.RecurringRule
		typ, freq string
		active    int64
		createdAt any
	)
	if err := s.Scan(&rule.ID, &rule.Description, &rule.Category, &rule.Amount, &typ, &rule.Person,
		&freq, &rule.StartDate, &rule.EndDate, &rule.LastProcessed, &active, &createdAt); err != nil {
		return core.RecurringRule{}, err
	}
	rule.Type = core.TransactionType(typ)
	rule.Frequency = core.Frequency(freq)
	rule.Active = active != 0
	rule.CreatedAt = parseTimestamp(createdAt)
	return rule, nil
}

// parseTimestamp accepts what the driver returns for a TIMESTAMP column,
// which is a time.Time or the raw CURRENT_TIMESTAMP text.
func parseTimestamp(v any) time.Time {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC()
	case string:
		return parseTimestampText(ts)
	case []byte:
		return parseTimestampText(string(ts))
	default:
		return time.Time{}
	}
}

func parseTimestampText(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
