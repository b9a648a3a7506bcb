// Package memory records exported summaries in memory, for tests and for
// running the worker without a spreadsheet configured.
package memory

import (
	"context"
	"sync"

	"busta/internal/core"
	"busta/internal/export"
)

type Writer struct {
	mu      sync.Mutex
	budgets []core.BudgetSummary
	cycles  []core.TwelveWeekCycleSummary
}

var _ export.SummaryWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteBudgetSummary(_ context.Context, summary core.BudgetSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.budgets = append(w.budgets, summary)
	return nil
}

func (w *Writer) WriteCycleSummary(_ context.Context, summary core.TwelveWeekCycleSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cycles = append(w.cycles, summary)
	return nil
}

// BudgetSummaries returns a copy of everything written so far.
func (w *Writer) BudgetSummaries() []core.BudgetSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.BudgetSummary, len(w.budgets))
	copy(out, w.budgets)
	return out
}

func (w *Writer) CycleSummaries() []core.TwelveWeekCycleSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]core.TwelveWeekCycleSummary, len(w.cycles))
	copy(out, w.cycles)
	return out
}
