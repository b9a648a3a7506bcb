package worker

import (
	"context"
	"testing"

	"busta/internal/amqp"
	"busta/internal/core"
	exportmem "busta/internal/export/memory"
	"busta/internal/store/memory"
)

func seedBudget(t *testing.T, st *memory.Store) (core.Budget, []core.BudgetEntry) {
	t.Helper()
	b, _, entries, err := st.CreateBudgetWithEntries(context.Background(), core.CreateBudgetInput{
		UserID:         1,
		Name:           "September",
		Label:          "2026-09",
		IncomeCents:    200000,
		Cadence:        core.Biweekly,
		PayPeriodIndex: 1,
		StartDate:      core.NewDate(2026, 9, 1),
		EndDate:        core.NewDate(2026, 9, 30),
		Paychecks: []core.PaycheckInput{
			{Index: 1, PayDate: core.NewDate(2026, 9, 5), AmountCents: 100000},
			{Index: 2, PayDate: core.NewDate(2026, 9, 19), AmountCents: 100000},
		},
		Entries: []core.NewEntryInput{
			{CategoryID: 10, PaycheckIndex: 1, PlannedCents: 80000},
			{CategoryID: 11, PaycheckIndex: 2, PlannedCents: 20000},
		},
	})
	if err != nil {
		t.Fatalf("CreateBudgetWithEntries: %v", err)
	}
	return b, entries
}

func TestHandleChangeExportsBudgetSummary(t *testing.T) {
	st := memory.New()
	writer := exportmem.New()
	w := NewSummaryWorker(st, writer)
	ctx := context.Background()

	budget, entries := seedBudget(t, st)
	if _, err := st.CreateTransaction(ctx, core.Transaction{
		UserID: 1, AccountID: 1, EntryID: &entries[0].ID,
		AmountCents: -75000, Kind: core.KindExpense,
		Status: core.StatusPaid, Type: core.TypeOccurred,
		Date: core.NewDate(2026, 9, 6),
	}); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	msg := amqp.NewChangeMessage(amqp.ScopeBudget, amqp.ActionUpdated, budget.ID, 1)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	got := writer.BudgetSummaries()
	if len(got) != 1 {
		t.Fatalf("exported %d summaries, want 1", len(got))
	}
	if got[0].TotalPlannedCents != 100000 || got[0].TotalActualCents != 75000 {
		t.Errorf("exported summary = %d/%d, want 100000/75000",
			got[0].TotalPlannedCents, got[0].TotalActualCents)
	}
}

func TestHandleChangeResolvesTransactionToBudget(t *testing.T) {
	st := memory.New()
	writer := exportmem.New()
	w := NewSummaryWorker(st, writer)
	ctx := context.Background()

	_, entries := seedBudget(t, st)
	txn, err := st.CreateTransaction(ctx, core.Transaction{
		UserID: 1, AccountID: 1, EntryID: &entries[1].ID,
		AmountCents: -5000, Kind: core.KindExpense,
		Status: core.StatusPaid, Type: core.TypeOccurred,
		Date: core.NewDate(2026, 9, 20),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	msg := amqp.NewChangeMessage(amqp.ScopeTransaction, amqp.ActionAssigned, txn.ID, 1)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if len(writer.BudgetSummaries()) != 1 {
		t.Fatal("transaction change did not export its budget summary")
	}
}

func TestHandleChangeSkipsDeletedAggregates(t *testing.T) {
	st := memory.New()
	writer := exportmem.New()
	w := NewSummaryWorker(st, writer)
	ctx := context.Background()

	// The aggregate referenced by the message no longer exists.
	msg := amqp.NewChangeMessage(amqp.ScopeBudget, amqp.ActionDeleted, 9999, 1)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange on deleted budget: %v", err)
	}
	if len(writer.BudgetSummaries()) != 0 {
		t.Error("deleted budget still produced an export")
	}
}

func TestHandleChangeExportsCycleSummary(t *testing.T) {
	st := memory.New()
	writer := exportmem.New()
	w := NewSummaryWorker(st, writer)
	ctx := context.Background()

	cycle, err := st.CreateCycle(ctx, core.TwelveWeekCycle{
		UserID: 1, Label: "Q4",
		StartDate: core.NewDate(2026, 9, 1), EndDate: core.NewDate(2026, 11, 23),
		TotalBudgetCents: 500000,
	})
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	exp, err := st.CreateDailyExpense(ctx, core.DailyExpense{
		UserID: 1, CycleID: &cycle.ID,
		Date: core.NewDate(2026, 9, 3), AmountCents: 1200,
		Title: "coffee", Status: core.StatusPaid, Type: core.TypeOccurred,
	})
	if err != nil {
		t.Fatalf("CreateDailyExpense: %v", err)
	}

	msg := amqp.NewChangeMessage(amqp.ScopeDailyExpense, amqp.ActionCreated, exp.ID, 1)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	got := writer.CycleSummaries()
	if len(got) != 1 {
		t.Fatalf("exported %d cycle summaries, want 1", len(got))
	}
	if got[0].TotalActualCents != 1200 {
		t.Errorf("cycle actual = %d, want 1200", got[0].TotalActualCents)
	}
}

func TestResyncReExportsSeenUsers(t *testing.T) {
	st := memory.New()
	writer := exportmem.New()
	w := NewSummaryWorker(st, writer)
	ctx := context.Background()

	budget, _ := seedBudget(t, st)
	msg := amqp.NewChangeMessage(amqp.ScopeBudget, amqp.ActionCreated, budget.ID, 1)
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if err := w.ResyncUsers(ctx); err != nil {
		t.Fatalf("ResyncUsers: %v", err)
	}

	// One export from the message, one from the resync pass.
	if got := len(writer.BudgetSummaries()); got != 2 {
		t.Fatalf("got %d exports after resync, want 2", got)
	}
}

func TestHandleChangeDropsUnknownScope(t *testing.T) {
	w := NewSummaryWorker(memory.New(), exportmem.New())
	msg := amqp.NewChangeMessage("galaxy", amqp.ActionCreated, 1, 1)
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("unknown scope should be dropped, got %v", err)
	}
}
