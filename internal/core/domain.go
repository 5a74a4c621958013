package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	BiWeekly Frequency = "bi-weekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// AutoSuffix marks descriptions of transactions materialized from a recurring rule.
const AutoSuffix = " (Auto)"

type (
	Frequency string

	TransactionType string

	// Transaction is one dated ledger entry. Amount is always a non-negative
	// magnitude; the sign comes from Type.
	Transaction struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Type        TransactionType `json:"type"`
		Person      string          `json:"person"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// RecurringRule is a template materialized into transactions on a schedule.
	RecurringRule struct {
		ID            int64           `json:"id"`
		Description   string          `json:"description"`
		Category      string          `json:"category"`
		Amount        decimal.Decimal `json:"amount"`
		Type          TransactionType `json:"type"`
		Person        string          `json:"person"`
		Frequency     Frequency       `json:"frequency"`
		StartDate     Date            `json:"start_date"`
		EndDate       Date            `json:"end_date"`
		LastProcessed Date            `json:"last_processed"`
		Active        bool            `json:"active"`
		CreatedAt     time.Time       `json:"created_at"`
	}
)

// Frequencies lists every supported schedule in display order.
var Frequencies = []Frequency{Daily, Weekly, BiWeekly, Monthly, Yearly}

func (f Frequency) Validate() error {
	for _, known := range Frequencies {
		if f == known {
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrInvalidFrequency, string(f))
}

// ParseFrequency accepts the canonical names case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if err := f.Validate(); err != nil {
		return "", err
	}
	return f, nil
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrInvalidType, string(t))
	}
}

// ParseTransactionType accepts "income"/"expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidType, s)
	}
}

// Signed returns the amount as income (+) or expense (-).
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateTemplate(t.Description, t.Category, t.Amount, t.Type, t.Person); err != nil {
		return err
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if err := validateTemplate(r.Description, r.Category, r.Amount, r.Type, r.Person); err != nil {
		return err
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// Materialize builds the transaction a rule produces for the given due date.
func (r RecurringRule) Materialize(due Date) Transaction {
	return Transaction{
		Date:        due,
		Description: r.Description + AutoSuffix,
		Category:    r.Category,
		Amount:      r.Amount,
		Type:        r.Type,
		Person:      r.Person,
	}
}

func validateTemplate(description, category string, amount decimal.Decimal, typ TransactionType, person string) error {
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	if strings.TrimSpace(category) == "" {
		return ErrEmptyCategory
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	if err := typ.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(person) == "" {
		return ErrEmptyPerson
	}
	return nil
}
