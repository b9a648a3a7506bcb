// Package services orchestrates the stores, the aggregation engine and the
// change-event publisher behind the HTTP surface.
package services

import (
	"iter"
	"sort"

	"busta/internal/core"
)

// Aggregation is pure computation over rows the caller already loaded.
// Actuals are always derived from linked transactions at read time, never
// cached, so a summary can not drift from the ledger.

// entryActualCents sums the signed amounts of the entry's transactions and
// flips the sign: spending is stored negative, actuals read as positive spend.
func entryActualCents(entryID int64, txns []core.Transaction) int64 {
	var signed int64
	for _, t := range txns {
		if t.EntryID != nil && *t.EntryID == entryID {
			signed += t.AmountCents
		}
	}
	return -signed
}

func ComputeEntryActuals(entries []core.BudgetEntry, txns []core.Transaction) []core.EntryActuals {
	out := make([]core.EntryActuals, 0, len(entries))
	for _, e := range entries {
		actual := entryActualCents(e.ID, txns)
		out = append(out, core.EntryActuals{
			Entry:          e,
			ActualCents:    actual,
			RemainingCents: e.PlannedCents - actual,
		})
	}
	return out
}

func ComputeBudgetSummary(budget core.Budget, entries []core.BudgetEntry, txns []core.Transaction) core.BudgetSummary {
	var planned, actual int64
	for _, e := range entries {
		planned += e.PlannedCents
		actual += entryActualCents(e.ID, txns)
	}
	return core.BudgetSummary{
		Budget:            budget,
		TotalPlannedCents: planned,
		TotalActualCents:  actual,
		RemainingCents:    planned - actual,
	}
}

// ComputeCycleSummary counts only expenses dated inside the cycle window.
// A cycle-linked expense can not be created outside the window, but the
// window itself may have been edited since.
func ComputeCycleSummary(cycle core.TwelveWeekCycle, expenses []core.DailyExpense) core.TwelveWeekCycleSummary {
	var actual int64
	for _, e := range expenses {
		if e.Date.Within(cycle.StartDate, cycle.EndDate) {
			actual += e.AmountCents
		}
	}
	return core.TwelveWeekCycleSummary{
		Cycle:             cycle,
		TotalPlannedCents: cycle.TotalBudgetCents,
		TotalActualCents:  actual,
	}
}

func ComputeCategoryTotals(expenses []core.DailyExpense) []core.CategoryTotal {
	byCategory := map[int64]int64{}
	for _, e := range expenses {
		if e.CategoryID == nil {
			continue
		}
		byCategory[*e.CategoryID] += e.AmountCents
	}
	out := make([]core.CategoryTotal, 0, len(byCategory))
	for id, cents := range byCategory {
		out = append(out, core.CategoryTotal{CategoryID: id, SpentCents: cents})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out
}

// DailyTotals yields one total per distinct date, ascending. The sequence is
// computed from a snapshot of the given expenses, so it is finite and safe to
// restart or abandon mid-iteration.
func DailyTotals(expenses []core.DailyExpense) iter.Seq[core.DailyTotal] {
	type dayAcc struct {
		date       core.Date
		spent      int64
		byCategory []core.DailyExpense
	}
	byDate := map[string]*dayAcc{}
	var keys []string
	for _, e := range expenses {
		key := e.Date.String()
		acc, ok := byDate[key]
		if !ok {
			acc = &dayAcc{date: e.Date}
			byDate[key] = acc
			keys = append(keys, key)
		}
		acc.spent += e.AmountCents
		acc.byCategory = append(acc.byCategory, e)
	}
	sort.Strings(keys)

	totals := make([]core.DailyTotal, 0, len(keys))
	for _, key := range keys {
		acc := byDate[key]
		totals = append(totals, core.DailyTotal{
			Date:       acc.date,
			SpentCents: acc.spent,
			ByCategory: ComputeCategoryTotals(acc.byCategory),
		})
	}

	return func(yield func(core.DailyTotal) bool) {
		for _, t := range totals {
			if !yield(t) {
				return
			}
		}
	}
}
