// Package store defines the persistence ports the engines consume. One
// implementation per storage technology: memory for tests/dev, sqlite for
// durable state.
package store

import (
	"context"

	"busta/internal/core"
)

// Multi-step mutations (create-with-entries, update-with-entries, reorder,
// cascade delete) are single methods so each backend can apply them
// atomically: partial failure never leaves a budget and its entry set
// inconsistent.
type (
	Budgets interface {
		FindBudget(ctx context.Context, id int64) (core.Budget, error)
		ListBudgetsByUser(ctx context.Context, userID int64) ([]core.Budget, error)
		ListBudgetsByHousehold(ctx context.Context, householdID int64) ([]core.Budget, error)
		ListPaychecks(ctx context.Context, budgetID int64) ([]core.Paycheck, error)
		FindEntry(ctx context.Context, entryID int64) (core.BudgetEntry, error)
		// ListEntries returns entries ordered by sort order, ties broken by id.
		ListEntries(ctx context.Context, budgetID int64) ([]core.BudgetEntry, error)

		CreateBudgetWithEntries(ctx context.Context, in core.CreateBudgetInput) (core.Budget, []core.Paycheck, []core.BudgetEntry, error)
		UpdateBudget(ctx context.Context, id int64, patch core.BudgetPatch) (core.Budget, error)
		// UpdateBudgetWithEntries applies the entry patches and the budget
		// patch in one atomic scope; a failing entry patch leaves the budget
		// row untouched and vice versa.
		UpdateBudgetWithEntries(ctx context.Context, id int64, patch core.BudgetPatch, entries []core.EntryPatch) (core.Budget, error)
		UpdateEntries(ctx context.Context, budgetID int64, patches []core.EntryPatch) error
		InsertEntry(ctx context.Context, entry core.BudgetEntry) (core.BudgetEntry, error)
		UpdateEntry(ctx context.Context, patch core.EntryPatch) (core.BudgetEntry, error)
		ReorderEntries(ctx context.Context, budgetID int64, orderedIDs []int64) error
		// DeleteEntry unlinks dependent transactions before removing the row.
		DeleteEntry(ctx context.Context, entryID int64) error
		// DeleteBudget cascades: entries first, then paychecks, then the budget.
		DeleteBudget(ctx context.Context, id int64) error
	}

	Transactions interface {
		FindTransaction(ctx context.Context, id int64) (core.Transaction, error)
		ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
		ListTransactionsByEntry(ctx context.Context, entryID int64) ([]core.Transaction, error)
		// ListTransactionsForBudget returns every transaction linked to any
		// entry of the budget.
		ListTransactionsForBudget(ctx context.Context, budgetID int64) ([]core.Transaction, error)
		ListTransactionsByDateRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error)

		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error)
		// AssignTransaction replaces any prior entry link; nil detaches.
		AssignTransaction(ctx context.Context, id int64, entryID *int64) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	Cycles interface {
		FindCycle(ctx context.Context, id int64) (core.TwelveWeekCycle, error)
		ListCyclesByUser(ctx context.Context, userID int64) ([]core.TwelveWeekCycle, error)
		CreateCycle(ctx context.Context, c core.TwelveWeekCycle) (core.TwelveWeekCycle, error)
		UpdateCycle(ctx context.Context, id int64, c core.TwelveWeekCycle) (core.TwelveWeekCycle, error)
		// DeleteCycle cascades to the cycle's daily expenses.
		DeleteCycle(ctx context.Context, id int64) error

		FindDailyExpense(ctx context.Context, id int64) (core.DailyExpense, error)
		// ListDailyExpensesByCycle returns expenses ordered by date ascending.
		ListDailyExpensesByCycle(ctx context.Context, cycleID int64) ([]core.DailyExpense, error)
		ListDailyExpensesByUserRange(ctx context.Context, userID int64, start, end core.Date) ([]core.DailyExpense, error)
		CreateDailyExpense(ctx context.Context, e core.DailyExpense) (core.DailyExpense, error)
		UpdateDailyExpense(ctx context.Context, id int64, e core.DailyExpense) (core.DailyExpense, error)
		DeleteDailyExpense(ctx context.Context, id int64) error
	}

	// Store is the full persistence surface consumed by the engines.
	Store interface {
		Budgets
		Transactions
		Cycles
	}
)
