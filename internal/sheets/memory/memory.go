package memory

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/core"
	ports "budget/internal/sheets"
)

// Mirror is an in-process stand-in for the spreadsheet mirror.
type Mirror struct {
	mu    sync.Mutex
	items []core.Transaction
	ids   map[int64]struct{}
}

var (
	_ ports.Mirror            = (*Mirror)(nil)
	_ ports.TransactionLister = (*Mirror)(nil)
)

func New() *Mirror {
	return &Mirror{ids: make(map[int64]struct{})}
}

// AppendTransaction stores the transaction and returns a synthetic row reference.
func (m *Mirror) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, t)
	m.ids[t.ID] = struct{}{}
	return fmt.Sprintf("mem:%d", len(m.items)), nil
}

func (m *Mirror) HasTransaction(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok, nil
}

// ListTransactions returns mirrored rows in append order.
func (m *Mirror) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Transaction(nil), m.items...), nil
}
