package memory

import (
	"context"
	"sync"
	"testing"

	"budget/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	day := core.NewDate(2024, 1, 5)
	for _, d := range []core.Date{day, core.NewDate(2024, 1, 9), day} {
		_, err := s.InsertTransaction(ctx, core.Transaction{
			Date: d, Description: "x", Category: "Food",
			Amount: decimal.NewFromInt(1), Type: core.Expense, Person: "Person 1",
		})
		require.NoError(t, err)
	}

	all, err := s.QueryTransactions(ctx, core.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.False(t, all[0].CreatedAt.IsZero())

	_, err = s.GetTransaction(ctx, 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreRules(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.InsertRecurringRule(ctx, core.RecurringRule{
		Description: "Gym", Frequency: core.Monthly, StartDate: core.NewDate(2024, 1, 1),
		LastProcessed: core.NewDate(2030, 1, 1),
	})
	require.NoError(t, err)

	rules, err := s.ListActiveRecurringRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].LastProcessed.IsZero(), "new rules start unprocessed")

	require.NoError(t, s.SetRecurringRuleActive(ctx, id, false))
	rules, err = s.ListActiveRecurringRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.NoError(t, s.UpdateRecurringRuleLastProcessed(ctx, id, core.NewDate(2024, 2, 1)))
	all, err := s.ListRecurringRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 2, 1), all[0].LastProcessed)

	assert.ErrorIs(t, s.SetRecurringRuleActive(ctx, 7, true), core.ErrNotFound)

	require.NoError(t, s.DeleteAllRecurringRules(ctx))
	all, err = s.ListRecurringRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.InsertTransaction(ctx, core.Transaction{Date: core.NewDate(2024, 1, 1)})
		}()
	}
	wg.Wait()

	all, err := s.QueryTransactions(ctx, core.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
