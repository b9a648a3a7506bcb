// Package worker recomputes summaries off the hot path: it consumes change
// events and pushes fresh figures to the configured export target.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"busta/internal/amqp"
	"busta/internal/core"
	"busta/internal/export"
	"busta/internal/services"
	"busta/internal/store"
)

type SummaryWorker struct {
	store  store.Store
	writer export.SummaryWriter

	mu        sync.Mutex
	seenUsers map[int64]struct{}
}

func NewSummaryWorker(st store.Store, writer export.SummaryWriter) *SummaryWorker {
	return &SummaryWorker{
		store:     st,
		writer:    writer,
		seenUsers: make(map[int64]struct{}),
	}
}

// HandleChange recomputes and exports the summary affected by one change
// message. The message only carries identifiers; state is re-read from the
// store, so replays and out-of-order deliveries converge on current truth.
func (w *SummaryWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"scope", msg.Scope,
		"action", msg.Action,
		"id", msg.ID)

	if msg.UserID > 0 {
		w.mu.Lock()
		w.seenUsers[msg.UserID] = struct{}{}
		w.mu.Unlock()
	}

	switch msg.Scope {
	case amqp.ScopeBudget:
		return w.exportBudget(ctx, msg.ID, msg.Action)
	case amqp.ScopeEntry:
		return w.exportBudgetOfEntry(ctx, msg.ID, msg.Action)
	case amqp.ScopeTransaction:
		return w.exportBudgetOfTransaction(ctx, msg.ID)
	case amqp.ScopeCycle:
		return w.exportCycle(ctx, msg.ID, msg.Action)
	case amqp.ScopeDailyExpense:
		return w.exportCycleOfExpense(ctx, msg.ID)
	default:
		// Unknown scopes are dropped rather than requeued forever.
		slog.WarnContext(ctx, "Unknown change scope, dropping", "scope", msg.Scope)
		return nil
	}
}

func (w *SummaryWorker) exportBudget(ctx context.Context, budgetID int64, action string) error {
	budget, err := w.store.FindBudget(ctx, budgetID)
	if err != nil {
		if action == amqp.ActionDeleted || core.IsNotFound(err) {
			// Deleted since the event was queued; nothing to export.
			slog.InfoContext(ctx, "Budget gone, skipping export", "budget_id", budgetID)
			return nil
		}
		return fmt.Errorf("load budget: %w", err)
	}

	entries, err := w.store.ListEntries(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	txns, err := w.store.ListTransactionsForBudget(ctx, budgetID)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	summary := services.ComputeBudgetSummary(budget, entries, txns)
	if err := w.writer.WriteBudgetSummary(ctx, summary); err != nil {
		return fmt.Errorf("write budget summary: %w", err)
	}
	return nil
}

func (w *SummaryWorker) exportBudgetOfEntry(ctx context.Context, entryID int64, action string) error {
	entry, err := w.store.FindEntry(ctx, entryID)
	if err != nil {
		if core.IsNotFound(err) {
			slog.InfoContext(ctx, "Entry gone, skipping export", "entry_id", entryID)
			return nil
		}
		return fmt.Errorf("load entry: %w", err)
	}
	return w.exportBudget(ctx, entry.BudgetID, action)
}

func (w *SummaryWorker) exportBudgetOfTransaction(ctx context.Context, txnID int64) error {
	txn, err := w.store.FindTransaction(ctx, txnID)
	if err != nil {
		if core.IsNotFound(err) {
			slog.InfoContext(ctx, "Transaction gone, skipping export", "transaction_id", txnID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}
	if txn.EntryID == nil {
		// Unassigned transactions affect no budget summary.
		return nil
	}
	return w.exportBudgetOfEntry(ctx, *txn.EntryID, amqp.ActionUpdated)
}

func (w *SummaryWorker) exportCycle(ctx context.Context, cycleID int64, action string) error {
	cycle, err := w.store.FindCycle(ctx, cycleID)
	if err != nil {
		if action == amqp.ActionDeleted || core.IsNotFound(err) {
			slog.InfoContext(ctx, "Cycle gone, skipping export", "cycle_id", cycleID)
			return nil
		}
		return fmt.Errorf("load cycle: %w", err)
	}

	expenses, err := w.store.ListDailyExpensesByCycle(ctx, cycleID)
	if err != nil {
		return fmt.Errorf("load daily expenses: %w", err)
	}

	summary := services.ComputeCycleSummary(cycle, expenses)
	if err := w.writer.WriteCycleSummary(ctx, summary); err != nil {
		return fmt.Errorf("write cycle summary: %w", err)
	}
	return nil
}

func (w *SummaryWorker) exportCycleOfExpense(ctx context.Context, expenseID int64) error {
	expense, err := w.store.FindDailyExpense(ctx, expenseID)
	if err != nil {
		if core.IsNotFound(err) {
			slog.InfoContext(ctx, "Daily expense gone, skipping export", "expense_id", expenseID)
			return nil
		}
		return fmt.Errorf("load daily expense: %w", err)
	}
	if expense.CycleID == nil {
		return nil
	}
	return w.exportCycle(ctx, *expense.CycleID, amqp.ActionUpdated)
}

// ResyncUsers re-exports every budget and cycle of the users seen so far.
// Runs on a timer so summaries recover from missed or dropped messages.
func (w *SummaryWorker) ResyncUsers(ctx context.Context) error {
	w.mu.Lock()
	users := make([]int64, 0, len(w.seenUsers))
	for id := range w.seenUsers {
		users = append(users, id)
	}
	w.mu.Unlock()

	var firstErr error
	for _, userID := range users {
		budgets, err := w.store.ListBudgetsByUser(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "Resync: listing budgets failed", "user_id", userID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, b := range budgets {
			if err := w.exportBudget(ctx, b.ID, amqp.ActionUpdated); err != nil {
				slog.WarnContext(ctx, "Resync: budget export failed", "budget_id", b.ID, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		cycles, err := w.store.ListCyclesByUser(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "Resync: listing cycles failed", "user_id", userID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, c := range cycles {
			if err := w.exportCycle(ctx, c.ID, amqp.ActionUpdated); err != nil {
				slog.WarnContext(ctx, "Resync: cycle export failed", "cycle_id", c.ID, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}
