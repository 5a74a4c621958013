package backend

import (
	"context"
	"path/filepath"
	"testing"

	"budget/internal/config"
	"budget/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "budget",
		AMQPQueue:    "q",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "q", cfg.AMQPQueue)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: "bogus"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "budget.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, res.Cleanup()) }()

			_, err = res.Ledger.AddTransaction(ctx, core.Transaction{
				Date:        core.NewDate(2024, 3, 1),
				Description: "Salary",
				Category:    "Work",
				Amount:      decimal.NewFromInt(2500),
				Type:        core.Income,
				Person:      "Person 1",
			})
			require.NoError(t, err)

			txs, err := res.Query.Query(ctx, core.Filter{})
			require.NoError(t, err)
			assert.Len(t, txs, 1)

			snap, err := res.Reconciler.Export(ctx)
			require.NoError(t, err)
			assert.Len(t, snap.Transactions, 1)

			n, err := res.Processor.ProcessDue(ctx, core.NewDate(2024, 3, 2).Time)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestCreateBackend_InvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)
}
