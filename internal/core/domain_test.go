package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		Date:        NewDate(2024, 1, 1),
		Description: "Groceries",
		Category:    "Food",
		Amount:      decimal.RequireFromString("42.50"),
		Type:        Expense,
		Person:      "Person 1",
	}
}

func validRule() RecurringRule {
	return RecurringRule{
		Description: "Rent",
		Category:    "Rent",
		Amount:      decimal.NewFromInt(1200),
		Type:        Expense,
		Person:      "Both",
		Frequency:   Monthly,
		StartDate:   NewDate(2024, 1, 1),
		Active:      true,
	}
}

func TestTransactionValidate(t *testing.T) {
	require.NoError(t, validTransaction().Validate())

	zeroAmount := validTransaction()
	zeroAmount.Amount = decimal.Zero
	assert.NoError(t, zeroAmount.Validate(), "zero is a valid magnitude")

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty date", func(t *Transaction) { t.Date = Date{} }, ErrInvalidDate},
		{"blank description", func(t *Transaction) { t.Description = "  " }, ErrEmptyDescription},
		{"blank category", func(t *Transaction) { t.Category = "" }, ErrEmptyCategory},
		{"negative amount", func(t *Transaction) { t.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"unknown type", func(t *Transaction) { t.Type = "Transfer" }, ErrInvalidType},
		{"blank person", func(t *Transaction) { t.Person = "" }, ErrEmptyPerson},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRecurringRuleValidate(t *testing.T) {
	require.NoError(t, validRule().Validate())

	tests := []struct {
		name   string
		mutate func(*RecurringRule)
		want   error
	}{
		{"unknown frequency", func(r *RecurringRule) { r.Frequency = "fortnightly" }, ErrInvalidFrequency},
		{"missing start", func(r *RecurringRule) { r.StartDate = Date{} }, ErrInvalidDate},
		{"end before start", func(r *RecurringRule) { r.EndDate = NewDate(2023, 12, 31) }, ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			assert.ErrorIs(t, r.Validate(), tt.want)
		})
	}
}

func TestLongDescriptionsAreValid(t *testing.T) {
	long := strings.Repeat("x", 1000)

	tx := validTransaction()
	tx.Description = long
	assert.NoError(t, tx.Validate())

	r := validRule()
	r.Description = long
	require.NoError(t, r.Validate())
	assert.NoError(t, r.Materialize(NewDate(2024, 2, 1)).Validate())
}

func TestMaterializeMarksProvenance(t *testing.T) {
	r := validRule()
	tx := r.Materialize(NewDate(2024, 2, 1))

	assert.Equal(t, "Rent (Auto)", tx.Description)
	assert.Equal(t, NewDate(2024, 2, 1), tx.Date)
	assert.Equal(t, r.Category, tx.Category)
	assert.True(t, r.Amount.Equal(tx.Amount))
	assert.Equal(t, r.Type, tx.Type)
	assert.Equal(t, r.Person, tx.Person)
	assert.Zero(t, tx.ID)
}

func TestSigned(t *testing.T) {
	tx := validTransaction()
	assert.Equal(t, "-42.5", tx.Signed().String())
	tx.Type = Income
	assert.Equal(t, "42.5", tx.Signed().String())
}

func TestParseFrequencyAndType(t *testing.T) {
	f, err := ParseFrequency(" Bi-Weekly ")
	require.NoError(t, err)
	assert.Equal(t, BiWeekly, f)

	_, err = ParseFrequency("hourly")
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	typ, err := ParseTransactionType("income")
	require.NoError(t, err)
	assert.Equal(t, Income, typ)

	_, err = ParseTransactionType("refund")
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
		E Date `json:"e"`
	}
	b, err := json.Marshal(wrapper{D: NewDate(2024, 2, 29)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-29","e":null}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-01","e":null}`), &w))
	assert.Equal(t, NewDate(2024, 3, 1), w.D)
	assert.True(t, w.E.IsZero())

	err = json.Unmarshal([]byte(`{"d":"03/01/2024"}`), &w)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-01-31"))
	assert.Equal(t, NewDate(2024, 1, 31), d)

	require.NoError(t, d.Scan([]byte("2024-02-01T00:00:00Z")))
	assert.Equal(t, NewDate(2024, 2, 1), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.out, got.String(), "input %q", tc.in)
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("disk full")
	err := NewStorageError("insert transaction", base)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "insert transaction: disk full", err.Error())
	assert.Nil(t, NewStorageError("noop", nil))

	wrapped := NewStorageError("process due", err)
	assert.ErrorIs(t, wrapped, ErrStorage)

	ioErr := &IOError{Path: "/tmp/x.json", Err: base}
	assert.ErrorIs(t, ioErr, ErrIO)
	assert.NotErrorIs(t, ioErr, ErrStorage)
}

func TestFilterMatches(t *testing.T) {
	tx := validTransaction()

	assert.True(t, Filter{}.Matches(tx))
	assert.True(t, Filter{StartDate: tx.Date, EndDate: tx.Date}.Matches(tx))
	assert.False(t, Filter{StartDate: NewDate(2024, 1, 2)}.Matches(tx))
	assert.False(t, Filter{EndDate: NewDate(2023, 12, 31)}.Matches(tx))
	assert.False(t, Filter{Category: "Rent"}.Matches(tx))
	assert.False(t, Filter{Person: "Person 2"}.Matches(tx))
	assert.False(t, Filter{Type: Income}.Matches(tx))
	assert.True(t, Filter{Category: "Food", Person: "Person 1", Type: Expense}.Matches(tx))
}

func TestSortLedger(t *testing.T) {
	txs := []Transaction{
		{ID: 1, Date: NewDate(2024, 1, 1)},
		{ID: 2, Date: NewDate(2024, 1, 3)},
		{ID: 3, Date: NewDate(2024, 1, 1)},
		{ID: 4, Date: NewDate(2024, 1, 2)},
	}
	SortLedger(txs)

	ids := make([]int64, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
	}
	assert.Equal(t, []int64{2, 4, 3, 1}, ids)
}
