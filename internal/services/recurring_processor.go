package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
)

// RecurringProcessor materializes due occurrences of active recurring rules.
// It owns the last-processed marker of every rule.
type RecurringProcessor struct {
	ledger *LedgerService
}

func NewRecurringProcessor(ledger *LedgerService) *RecurringProcessor {
	return &RecurringProcessor{ledger: ledger}
}

// ProcessDue advances each active rule by at most one period. A rule whose
// next occurrence is on or before now (and whose end date, if any, is not
// before now) gets one transaction dated at that occurrence and its marker
// moved to it. It returns the number of transactions created.
//
// A fault in one rule is logged and the remaining rules are still
// evaluated. A storage failure stops the run; the count so far is returned
// with the error. Insert and marker update are separate writes, so a
// failure between them can lead to a duplicate on the next run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.ledger == nil || p.ledger.Store() == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	store := p.ledger.Store()
	today := core.DateOf(now)
	logger := applog.For(ctx, applog.ComponentRecurring)

	rules, err := store.ListActiveRecurringRules(ctx)
	if err != nil {
		return 0, core.NewStorageError("list active recurring rules", err)
	}

	logger.InfoContext(ctx, "Processing recurring rules",
		applog.FieldOperation, applog.OpProcess,
		"total_active", len(rules),
		"processing_date", today.String())

	processed := 0
	for _, rule := range rules {
		due, ok, err := nextDue(rule, today)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to compute next due date",
				applog.FieldRuleID, rule.ID,
				"frequency", rule.Frequency,
				applog.FieldError, err)
			continue
		}
		if !ok {
			continue
		}

		id, err := p.ledger.AddTransaction(ctx, rule.Materialize(due))
		if err != nil {
			if errors.Is(err, core.ErrStorage) {
				return processed, err
			}
			logger.ErrorContext(ctx, "Failed to materialize recurring rule",
				applog.FieldRuleID, rule.ID,
				applog.FieldDescription, rule.Description,
				applog.FieldError, err)
			continue
		}

		if err := store.UpdateRecurringRuleLastProcessed(ctx, rule.ID, due); err != nil {
			logger.ErrorContext(ctx, "Failed to update last processed date",
				applog.FieldRuleID, rule.ID,
				applog.FieldTransactionID, id,
				applog.FieldDueDate, due.String(),
				applog.FieldError, err)
			return processed + 1, fmt.Errorf("rule %d: %w", rule.ID, core.NewStorageError("update last processed", err))
		}

		processed++
		logger.InfoContext(ctx, "Created transaction from recurring rule",
			applog.FieldRuleID, rule.ID,
			applog.FieldTransactionID, id,
			applog.FieldDescription, rule.Description,
			applog.FieldAmount, rule.Amount.String(),
			"frequency", rule.Frequency,
			applog.FieldDueDate, due.String())
	}

	logger.InfoContext(ctx, "Recurring rule processing complete",
		"processed", processed,
		"total_checked", len(rules))

	return processed, nil
}

// CatchUp calls ProcessDue until it materializes nothing, so a backlog of
// missed periods is filled in. maxRounds <= 0 means no limit.
func (p *RecurringProcessor) CatchUp(ctx context.Context, now time.Time, maxRounds int) (int, error) {
	total := 0
	for round := 1; maxRounds <= 0 || round <= maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := p.ProcessDue(ctx, now)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}

	applog.For(ctx, applog.ComponentRecurring).InfoContext(ctx, "Recurring catch-up complete",
		applog.FieldOperation, applog.OpProcess,
		"processed", total)
	return total, nil
}

// nextDue reports the rule's next occurrence and whether it is due on today.
func nextDue(rule core.RecurringRule, today core.Date) (core.Date, bool, error) {
	anchor := rule.LastProcessed
	if anchor.IsZero() {
		if rule.StartDate.IsZero() {
			return core.Date{}, false, fmt.Errorf("rule %d: %w", rule.ID, core.ErrInvalidDate)
		}
		anchor = rule.StartDate.AddDays(-1)
	}

	next, err := Advance(anchor, rule.Frequency)
	if err != nil {
		return core.Date{}, false, fmt.Errorf("rule %d: %w", rule.ID, err)
	}

	if next.After(today) {
		return next, false, nil
	}
	if !rule.EndDate.IsZero() && rule.EndDate.Before(today) {
		return next, false, nil
	}
	return next, true, nil
}
