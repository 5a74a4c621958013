package worker

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/sheets"
	"budget/internal/storage"
)

// SyncWorker mirrors ledger transactions into a spreadsheet.
type SyncWorker struct {
	ledger storage.Ledger
	mirror sheets.Mirror
}

func NewSyncWorker(ledger storage.Ledger, mirror sheets.Mirror) *SyncWorker {
	return &SyncWorker{ledger: ledger, mirror: mirror}
}

// HandleTransactionCreated processes a single TransactionCreated message.
// A transaction that no longer exists is acknowledged and skipped.
func (w *SyncWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	logger := applog.For(ctx, applog.ComponentWorker)
	logger.InfoContext(ctx, "Processing transaction message",
		applog.FieldTransactionID, msg.TransactionID,
		applog.FieldMessageID, msg.MessageID)

	t, err := w.ledger.GetTransaction(ctx, msg.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		logger.WarnContext(ctx, "Transaction no longer in ledger, skipping",
			applog.FieldTransactionID, msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	_, err = w.syncTransaction(ctx, t)
	return err
}

// BackfillMissing appends every ledger transaction the mirror does not yet
// have. It recovers from lost messages and worker downtime.
func (w *SyncWorker) BackfillMissing(ctx context.Context) (int, error) {
	txs, err := w.ledger.QueryTransactions(ctx, core.Filter{})
	if err != nil {
		return 0, fmt.Errorf("list ledger transactions: %w", err)
	}

	logger := applog.For(ctx, applog.ComponentWorker)
	synced, failed := 0, 0
	// Oldest first so the sheet stays in entry order.
	for i := len(txs) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		appended, err := w.syncTransaction(ctx, txs[i])
		if err != nil {
			logger.ErrorContext(ctx, "Failed to backfill transaction",
				applog.FieldTransactionID, txs[i].ID, applog.FieldError, err)
			failed++
			continue
		}
		if appended {
			synced++
		}
	}

	logger.InfoContext(ctx, "Backfill completed",
		applog.FieldOperation, applog.OpSync,
		"total", len(txs),
		"synced", synced,
		"errors", failed)
	return synced, nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, t core.Transaction) (bool, error) {
	logger := applog.For(ctx, applog.ComponentSheets)
	present, err := w.mirror.HasTransaction(ctx, t.ID)
	if err != nil {
		return false, fmt.Errorf("check mirror: %w", err)
	}
	if present {
		logger.DebugContext(ctx, "Transaction already mirrored", applog.FieldTransactionID, t.ID)
		return false, nil
	}

	ref, err := w.mirror.AppendTransaction(ctx, t)
	if err != nil {
		return false, fmt.Errorf("append to sheets: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpSync).
		WithTransaction(t.ID, t.Description, t.Category, t.Amount.StringFixed(2))
	logger.InfoContext(ctx, "Successfully mirrored transaction",
		append(fields.ToSlice(), "sheets_ref", ref)...)
	return true, nil
}
