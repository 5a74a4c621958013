package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueRunner_RunOnce(t *testing.T) {
	ctx := context.Background()

	for _, catchUp := range []bool{false, true} {
		store := memory.New()
		ledger := NewLedgerService(store, nil)
		mustAddRule(t, ledger, newRule("Coffee", core.Daily, core.NewDate(2024, 1, 1)))

		r := NewDueRunner(NewRecurringProcessor(ledger), DueRunnerConfig{CatchUp: catchUp})
		r.now = func() time.Time { return at(2024, 1, 5) }

		n, err := r.RunOnce(ctx)
		require.NoError(t, err)
		if catchUp {
			assert.Equal(t, 5, n)
		} else {
			assert.Equal(t, 1, n)
		}
	}
}

func TestDueRunner_Lifecycle(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.New(), nil)
	r := NewDueRunner(NewRecurringProcessor(ledger), DueRunnerConfig{Interval: 10 * time.Millisecond})

	require.NoError(t, r.Start(ctx))
	assert.True(t, r.IsRunning())
	assert.Error(t, r.Start(ctx), "second start is rejected")

	time.Sleep(30 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
	assert.False(t, r.IsRunning())
	assert.NoError(t, r.Stop(stopCtx), "stopping twice is a no-op")
}

// blockingStore holds ListActiveRecurringRules until release is closed.
type blockingStore struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) ListActiveRecurringRules(ctx context.Context) ([]core.RecurringRule, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.Store.ListActiveRecurringRules(ctx)
}

func TestDueRunner_StopTimeoutCanRetry(t *testing.T) {
	ctx := context.Background()
	store := &blockingStore{Store: memory.New(), entered: make(chan struct{}), release: make(chan struct{})}
	r := NewDueRunner(NewRecurringProcessor(NewLedgerService(store, nil)), DueRunnerConfig{Interval: 5 * time.Millisecond})

	require.NoError(t, r.Start(ctx))
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("runner never ticked")
	}

	for i := 0; i < 2; i++ {
		short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		err := r.Stop(short)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, r.IsRunning())
	}

	close(store.release)
	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))
	assert.False(t, r.IsRunning())
}

func TestDueRunner_DefaultInterval(t *testing.T) {
	r := NewDueRunner(nil, DueRunnerConfig{})
	assert.Equal(t, time.Hour, r.config.Interval)
}
