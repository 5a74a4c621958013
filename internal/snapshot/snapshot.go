// Package snapshot reads and writes portable copies of the ledger and its
// recurring rules.
//
// A snapshot is a JSON document:
//
//	{
//	  "transactions": [{"id": 1, "date": "2024-01-07", ...}],
//	  "recurring_transactions": [{"id": 1, "description": "Rent", ...}],
//	  "export_date": "2024-01-10T09:00:00Z",
//	  "version": "1.0"
//	}
//
// Rows are written as objects with fields in storage order. Decode also
// accepts rows written as positional arrays in the same order.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"budget/internal/core"
)

// Version is written into every exported snapshot.
const Version = "1.0"

type Snapshot struct {
	Transactions   []core.Transaction
	RecurringRules []core.RecurringRule
	ExportDate     time.Time
	Version        string
}

type document struct {
	Transactions   []json.RawMessage `json:"transactions"`
	RecurringRules []json.RawMessage `json:"recurring_transactions"`
	ExportDate     string            `json:"export_date"`
	Version        string            `json:"version"`
}

type encodedDocument struct {
	Transactions   []core.Transaction   `json:"transactions"`
	RecurringRules []core.RecurringRule `json:"recurring_transactions"`
	ExportDate     string               `json:"export_date"`
	Version        string               `json:"version"`
}

// Encode writes s as indented JSON. Nil slices are written as empty arrays.
func Encode(w io.Writer, s Snapshot) error {
	doc := encodedDocument{
		Transactions:   s.Transactions,
		RecurringRules: s.RecurringRules,
		ExportDate:     s.ExportDate.UTC().Format(time.RFC3339),
		Version:        s.Version,
	}
	if doc.Transactions == nil {
		doc.Transactions = []core.Transaction{}
	}
	if doc.RecurringRules == nil {
		doc.RecurringRules = []core.RecurringRule{}
	}
	if doc.Version == "" {
		doc.Version = Version
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Decode parses a snapshot. Missing sections decode as empty.
func Decode(r io.Reader) (Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	s := Snapshot{
		Transactions:   make([]core.Transaction, 0, len(doc.Transactions)),
		RecurringRules: make([]core.RecurringRule, 0, len(doc.RecurringRules)),
		Version:        doc.Version,
	}

	if doc.ExportDate != "" {
		ts, err := parseTimestamp(doc.ExportDate)
		if err != nil {
			return Snapshot{}, fmt.Errorf("export_date: %w", err)
		}
		s.ExportDate = ts
	}

	for i, raw := range doc.Transactions {
		t, err := decodeTransaction(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		s.Transactions = append(s.Transactions, t)
	}
	for i, raw := range doc.RecurringRules {
		rule, err := decodeRule(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("recurring_transactions[%d]: %w", i, err)
		}
		s.RecurringRules = append(s.RecurringRules, rule)
	}

	return s, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func decodeTransaction(raw json.RawMessage) (core.Transaction, error) {
	if !isArray(raw) {
		var row struct {
			core.Transaction
			CreatedAt string `json:"created_at"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return core.Transaction{}, err
		}
		t := row.Transaction
		ts, err := parseOptionalTimestamp(row.CreatedAt)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("created_at: %w", err)
		}
		t.CreatedAt = ts
		return t, nil
	}

	var cols []json.RawMessage
	if err := json.Unmarshal(raw, &cols); err != nil {
		return core.Transaction{}, err
	}
	if len(cols) < 7 {
		return core.Transaction{}, fmt.Errorf("expected at least 7 columns, got %d", len(cols))
	}

	var (
		t         core.Transaction
		typ       string
		createdAt string
	)
	targets := []any{&t.ID, &t.Date, &t.Description, &t.Category, &t.Amount, &typ, &t.Person}
	if len(cols) > 7 {
		targets = append(targets, &createdAt)
	}
	if err := unmarshalColumns(cols, targets); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	ts, err := parseOptionalTimestamp(createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("created_at: %w", err)
	}
	t.CreatedAt = ts
	return t, nil
}

func decodeRule(raw json.RawMessage) (core.RecurringRule, error) {
	if !isArray(raw) {
		var row struct {
			core.RecurringRule
			Active    *flag  `json:"active"`
			CreatedAt string `json:"created_at"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return core.RecurringRule{}, err
		}
		rule := row.RecurringRule
		rule.Active = row.Active == nil || bool(*row.Active)
		ts, err := parseOptionalTimestamp(row.CreatedAt)
		if err != nil {
			return core.RecurringRule{}, fmt.Errorf("created_at: %w", err)
		}
		rule.CreatedAt = ts
		return rule, nil
	}

	var cols []json.RawMessage
	if err := json.Unmarshal(raw, &cols); err != nil {
		return core.RecurringRule{}, err
	}
	if len(cols) < 9 {
		return core.RecurringRule{}, fmt.Errorf("expected at least 9 columns, got %d", len(cols))
	}

	var (
		rule      core.RecurringRule
		typ, freq string
		active    = flag(true)
		createdAt string
	)
	targets := []any{&rule.ID, &rule.Description, &rule.Category, &rule.Amount, &typ, &rule.Person,
		&freq, &rule.StartDate, &rule.EndDate, &rule.LastProcessed, &active, &createdAt}
	if err := unmarshalColumns(cols, targets[:min(len(cols), len(targets))]); err != nil {
		return core.RecurringRule{}, err
	}
	rule.Type = core.TransactionType(typ)
	rule.Frequency = core.Frequency(freq)
	rule.Active = bool(active)
	ts, err := parseOptionalTimestamp(createdAt)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("created_at: %w", err)
	}
	rule.CreatedAt = ts
	return rule, nil
}

func unmarshalColumns(cols []json.RawMessage, targets []any) error {
	for i, target := range targets {
		if string(bytes.TrimSpace(cols[i])) == "null" {
			continue
		}
		if err := json.Unmarshal(cols[i], target); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}
	return nil
}

// flag accepts JSON booleans as well as 0/1 integers.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch strings.TrimSpace(string(b)) {
	case "true", "1":
		*f = true
	case "false", "0":
		*f = false
	case "null":
	default:
		return fmt.Errorf("invalid active flag %s", b)
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	core.DateLayout,
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parseOptionalTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return parseTimestamp(s)
}
