package sheets

import (
	"context"

	"budget/internal/core"
)

// Ports for the outbound spreadsheet mirror. The mirror is a copy of the
// ledger for people who read it in a spreadsheet; the ledger stays the
// source of truth.
type (
	TransactionWriter interface {
		// AppendTransaction adds t as a new row and returns a reference to it.
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// TransactionLister reads the mirrored rows back.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Mirror is what the sync worker needs from a spreadsheet backend.
	Mirror interface {
		TransactionWriter
		// HasTransaction reports whether the ledger id is already mirrored.
		HasTransaction(ctx context.Context, id int64) (bool, error)
	}
)
