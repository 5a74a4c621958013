package memory

import (
	"context"
	"testing"

	"budget/internal/core"

	"github.com/shopspring/decimal"
)

func TestMirrorAppendAndList(t *testing.T) {
	m := New()
	ctx := context.Background()

	tx := core.Transaction{
		ID:          3,
		Date:        core.NewDate(2024, 1, 15),
		Description: "Groceries",
		Category:    "Food",
		Amount:      decimal.RequireFromString("54.20"),
		Type:        core.Expense,
		Person:      "Person 2",
	}
	ref, err := m.AppendTransaction(ctx, tx)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ok, _ := m.HasTransaction(ctx, 3)
	if !ok {
		t.Error("expected id 3 to be mirrored")
	}
	ok, _ = m.HasTransaction(ctx, 4)
	if ok {
		t.Error("id 4 should not be mirrored")
	}

	list, err := m.ListTransactions(ctx)
	if err != nil || len(list) != 1 || list[0].Description != "Groceries" {
		t.Fatalf("unexpected list: %v err=%v", list, err)
	}

	// The returned slice is a copy.
	list[0].Description = "changed"
	again, _ := m.ListTransactions(ctx)
	if again[0].Description != "Groceries" {
		t.Error("list must not alias internal state")
	}
}

func TestMirrorRejectsInvalid(t *testing.T) {
	m := New()
	if _, err := m.AppendTransaction(context.Background(), core.Transaction{ID: 1}); err == nil {
		t.Fatal("expected validation error")
	}
	list, _ := m.ListTransactions(context.Background())
	if len(list) != 0 {
		t.Errorf("invalid transaction stored: %v", list)
	}
}
