package services

import (
	"context"
	"fmt"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/storage"
)

// EventPublisher announces newly stored transactions to downstream consumers.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, id int64) error
	Close() error
}

// LedgerService validates manual entries, stores them, and publishes a
// TransactionCreated event for each stored transaction.
type LedgerService struct {
	store     storage.Ledger
	publisher EventPublisher
}

// NewLedgerService wires a store and an optional publisher (nil disables events).
func NewLedgerService(store storage.Ledger, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// Store exposes the underlying ledger to the other services.
func (s *LedgerService) Store() storage.Ledger {
	return s.store
}

// AddTransaction validates t and stores it. Nothing is persisted when
// validation fails.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	logger := applog.For(ctx, applog.ComponentLedger)
	logger.InfoContext(ctx, "Transaction stored",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithTransaction(id, t.Description, t.Category, t.Amount.StringFixed(2)).
			ToSlice()...)

	if err := s.publishCreated(ctx, id); err != nil {
		logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldTransactionID, id, applog.FieldError, err)
		// Don't fail the call - the transaction is stored locally
	}

	return id, nil
}

// AddRecurringRule validates r and stores it as an active rule.
func (s *LedgerService) AddRecurringRule(ctx context.Context, r core.RecurringRule) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertRecurringRule(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("save recurring rule: %w", err)
	}

	applog.For(ctx, applog.ComponentLedger).InfoContext(ctx, "Recurring rule created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldRuleID, id,
		applog.FieldDescription, r.Description,
		"frequency", r.Frequency,
		"start_date", r.StartDate.String())

	return id, nil
}

// ListRecurringRules returns the active rules, or every rule when includeInactive is set.
func (s *LedgerService) ListRecurringRules(ctx context.Context, includeInactive bool) ([]core.RecurringRule, error) {
	if includeInactive {
		return s.store.ListRecurringRules(ctx)
	}
	return s.store.ListActiveRecurringRules(ctx)
}

// SetRecurringRuleActive pauses or resumes a rule. A resumed rule continues
// from its last-processed marker.
func (s *LedgerService) SetRecurringRuleActive(ctx context.Context, id int64, active bool) error {
	if err := s.store.SetRecurringRuleActive(ctx, id, active); err != nil {
		return err
	}
	applog.For(ctx, applog.ComponentLedger).InfoContext(ctx, "Recurring rule state changed",
		applog.FieldRuleID, id, "active", active)
	return nil
}

func (s *LedgerService) publishCreated(ctx context.Context, id int64) error {
	if s.publisher == nil {
		applog.For(ctx, applog.ComponentLedger).DebugContext(ctx, "Event publisher not configured, skipping transaction event")
		return nil
	}
	return s.publisher.PublishTransactionCreated(ctx, id)
}

// Close closes both the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
