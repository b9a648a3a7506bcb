package services

import (
	"context"
	"fmt"
	"log/slog"

	"busta/internal/amqp"
	"busta/internal/core"
	"busta/internal/store"
)

// BudgetService owns budget and entry mutations and the read-side assembly
// of budgets with reconciled actuals.
type BudgetService struct {
	store store.Store
	pub   ChangePublisher
}

func NewBudgetService(st store.Store, pub ChangePublisher) *BudgetService {
	return &BudgetService{store: st, pub: pub}
}

func (s *BudgetService) CreateBudget(ctx context.Context, in core.CreateBudgetInput) (core.BudgetWithEntries, error) {
	if err := in.Validate(); err != nil {
		return core.BudgetWithEntries{}, err
	}

	budget, paychecks, entries, err := s.store.CreateBudgetWithEntries(ctx, in)
	if err != nil {
		return core.BudgetWithEntries{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", budget.ID,
		"user_id", budget.UserID,
		"label", budget.Label,
		"entries", len(entries))
	publishChange(ctx, s.pub, amqp.ScopeBudget, amqp.ActionCreated, budget.ID, budget.UserID)

	// A fresh budget has no linked transactions, so actuals are zero.
	return core.BudgetWithEntries{
		Budget:    budget,
		Paychecks: paychecks,
		Entries:   ComputeEntryActuals(entries, nil),
	}, nil
}

// GetBudget returns the budget with its paychecks and per-entry actuals
// derived from the transactions currently linked to each entry.
func (s *BudgetService) GetBudget(ctx context.Context, budgetID, userID int64, householdID *int64) (core.BudgetWithEntries, error) {
	budget, err := s.store.FindBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetWithEntries{}, err
	}
	if err := authorizeBudget(budget, userID, householdID); err != nil {
		return core.BudgetWithEntries{}, err
	}

	paychecks, err := s.store.ListPaychecks(ctx, budgetID)
	if err != nil {
		return core.BudgetWithEntries{}, fmt.Errorf("load paychecks: %w", err)
	}
	entries, err := s.store.ListEntries(ctx, budgetID)
	if err != nil {
		return core.BudgetWithEntries{}, fmt.Errorf("load entries: %w", err)
	}
	txns, err := s.store.ListTransactionsForBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetWithEntries{}, fmt.Errorf("load transactions: %w", err)
	}

	return core.BudgetWithEntries{
		Budget:    budget,
		Paychecks: paychecks,
		Entries:   ComputeEntryActuals(entries, txns),
	}, nil
}

func (s *BudgetService) GetBudgetSummary(ctx context.Context, budgetID, userID int64, householdID *int64) (core.BudgetSummary, error) {
	budget, err := s.store.FindBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	if err := authorizeBudget(budget, userID, householdID); err != nil {
		return core.BudgetSummary{}, err
	}

	entries, err := s.store.ListEntries(ctx, budgetID)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("load entries: %w", err)
	}
	txns, err := s.store.ListTransactionsForBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("load transactions: %w", err)
	}

	return ComputeBudgetSummary(budget, entries, txns), nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.store.ListBudgetsByUser(ctx, userID)
}

func (s *BudgetService) ListHouseholdBudgets(ctx context.Context, householdID int64) ([]core.Budget, error) {
	return s.store.ListBudgetsByHousehold(ctx, householdID)
}

func (s *BudgetService) UpdateBudget(ctx context.Context, budgetID, userID int64, householdID *int64, patch core.BudgetPatch) (core.Budget, error) {
	if err := patch.Validate(); err != nil {
		return core.Budget{}, err
	}

	budget, err := s.store.FindBudget(ctx, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	if err := authorizeBudget(budget, userID, householdID); err != nil {
		return core.Budget{}, err
	}

	if patch.CycleID != nil {
		cycle, err := s.store.FindCycle(ctx, *patch.CycleID)
		if err != nil {
			return core.Budget{}, err
		}
		if err := authorizeCycle(cycle, userID, householdID); err != nil {
			return core.Budget{}, err
		}
	}

	updated, err := s.store.UpdateBudget(ctx, budgetID, patch)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated", "id", budgetID, "user_id", userID)
	publishChange(ctx, s.pub, amqp.ScopeBudget, amqp.ActionUpdated, budgetID, userID)
	return updated, nil
}

// UpdateBudgetWithEntries applies the budget patch and the entry patches in
// one atomic store call; a rejected entry batch leaves the budget row
// untouched and vice versa.
func (s *BudgetService) UpdateBudgetWithEntries(ctx context.Context, budgetID, userID int64, householdID *int64, in core.UpdateBudgetWithEntriesInput) (core.Budget, error) {
	if err := in.Budget.Validate(); err != nil {
		return core.Budget{}, err
	}

	budget, err := s.store.FindBudget(ctx, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	if err := authorizeBudget(budget, userID, householdID); err != nil {
		return core.Budget{}, err
	}

	updated, err := s.store.UpdateBudgetWithEntries(ctx, budgetID, in.Budget, in.Entries)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget with entries: %w", err)
	}

	slog.InfoContext(ctx, "Budget updated with entries",
		"id", budgetID, "user_id", userID, "patched_entries", len(in.Entries))
	publishChange(ctx, s.pub, amqp.ScopeBudget, amqp.ActionUpdated, budgetID, userID)
	return updated, nil
}

// UpsertEntry updates the addressed entry, or appends a new one at the end of
// the current sort order when no entry id is given.
func (s *BudgetService) UpsertEntry(ctx context.Context, in core.UpsertEntryInput) (core.BudgetEntry, error) {
	if err := in.Validate(); err != nil {
		return core.BudgetEntry{}, err
	}

	budget, err := s.store.FindBudget(ctx, in.BudgetID)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	if err := authorizeBudget(budget, in.UserID, in.HouseholdID); err != nil {
		return core.BudgetEntry{}, err
	}

	if in.EntryID == nil {
		entries, err := s.store.ListEntries(ctx, in.BudgetID)
		if err != nil {
			return core.BudgetEntry{}, fmt.Errorf("load entries: %w", err)
		}
		sortOrder := len(entries)
		if in.SortOrder != nil {
			sortOrder = *in.SortOrder
		}
		entry, err := s.store.InsertEntry(ctx, core.BudgetEntry{
			BudgetID:     in.BudgetID,
			PaycheckID:   in.PaycheckID,
			CategoryID:   in.CategoryID,
			PlannedCents: in.PlannedCents,
			SortOrder:    sortOrder,
			Note:         in.Note,
		})
		if err != nil {
			return core.BudgetEntry{}, fmt.Errorf("insert entry: %w", err)
		}
		slog.InfoContext(ctx, "Budget entry created",
			"id", entry.ID, "budget_id", in.BudgetID, "planned_cents", entry.PlannedCents)
		publishChange(ctx, s.pub, amqp.ScopeEntry, amqp.ActionCreated, entry.ID, in.UserID)
		return entry, nil
	}

	existing, err := s.store.FindEntry(ctx, *in.EntryID)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	if existing.BudgetID != in.BudgetID {
		return core.BudgetEntry{}, core.Forbiddenf("entry %d does not belong to budget %d", *in.EntryID, in.BudgetID)
	}

	entry, err := s.store.UpdateEntry(ctx, core.EntryPatch{
		EntryID:      *in.EntryID,
		PlannedCents: &in.PlannedCents,
		Note:         in.Note,
		SortOrder:    in.SortOrder,
	})
	if err != nil {
		return core.BudgetEntry{}, fmt.Errorf("update entry: %w", err)
	}
	slog.InfoContext(ctx, "Budget entry updated",
		"id", entry.ID, "budget_id", in.BudgetID, "planned_cents", entry.PlannedCents)
	publishChange(ctx, s.pub, amqp.ScopeEntry, amqp.ActionUpdated, entry.ID, in.UserID)
	return entry, nil
}

// ReorderEntries applies a full permutation of the budget's entries. Partial
// or foreign id sets are rejected without changing the stored order.
func (s *BudgetService) ReorderEntries(ctx context.Context, in core.ReorderEntriesInput) ([]core.BudgetEntry, error) {
	budget, err := s.store.FindBudget(ctx, in.BudgetID)
	if err != nil {
		return nil, err
	}
	if err := authorizeBudget(budget, in.UserID, in.HouseholdID); err != nil {
		return nil, err
	}

	if err := s.store.ReorderEntries(ctx, in.BudgetID, in.OrderedEntryIDs); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Budget entries reordered",
		"budget_id", in.BudgetID, "entries", len(in.OrderedEntryIDs))
	publishChange(ctx, s.pub, amqp.ScopeBudget, amqp.ActionReordered, in.BudgetID, in.UserID)
	return s.store.ListEntries(ctx, in.BudgetID)
}

func (s *BudgetService) DeleteEntry(ctx context.Context, entryID, userID int64, householdID *int64) error {
	entry, err := s.store.FindEntry(ctx, entryID)
	if err != nil {
		return err
	}
	budget, err := s.store.FindBudget(ctx, entry.BudgetID)
	if err != nil {
		return err
	}
	if err := authorizeBudget(budget, userID, householdID); err != nil {
		return err
	}

	if err := s.store.DeleteEntry(ctx, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	slog.InfoContext(ctx, "Budget entry deleted", "id", entryID, "budget_id", entry.BudgetID)
	publishChange(ctx, s.pub, amqp.ScopeEntry, amqp.ActionDeleted, entryID, userID)
	return nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, budgetID, userID int64, householdID *int64) error {
	budget, err := s.store.FindBudget(ctx, budgetID)
	if err != nil {
		return err
	}
	if err := authorizeBudget(budget, userID, householdID); err != nil {
		return err
	}

	if err := s.store.DeleteBudget(ctx, budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget deleted", "id", budgetID, "user_id", userID)
	publishChange(ctx, s.pub, amqp.ScopeBudget, amqp.ActionDeleted, budgetID, userID)
	return nil
}
