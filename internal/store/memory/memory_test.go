package memory

import (
	"context"
	"testing"

	"busta/internal/core"
)

func mustDate(t *testing.T, y int, m, d int) core.Date {
	t.Helper()
	return core.NewDate(y, m, d)
}

func seedBudget(t *testing.T, s *Store) (core.Budget, []core.Paycheck, []core.BudgetEntry) {
	t.Helper()
	note := "first half rent"
	b, pcs, entries, err := s.CreateBudgetWithEntries(context.Background(), core.CreateBudgetInput{
		UserID:         1,
		Name:           "September",
		Label:          "2026-09",
		IncomeCents:    200000,
		Cadence:        core.Biweekly,
		PayPeriodIndex: 1,
		StartDate:      mustDate(t, 2026, 9, 1),
		EndDate:        mustDate(t, 2026, 9, 30),
		Paychecks: []core.PaycheckInput{
			{Index: 1, PayDate: mustDate(t, 2026, 9, 5), AmountCents: 100000},
			{Index: 2, PayDate: mustDate(t, 2026, 9, 19), AmountCents: 100000},
		},
		Entries: []core.NewEntryInput{
			{CategoryID: 10, PaycheckIndex: 1, PlannedCents: 80000, Note: &note},
			{CategoryID: 11, PaycheckIndex: 2, PlannedCents: 20000},
		},
	})
	if err != nil {
		t.Fatalf("CreateBudgetWithEntries: %v", err)
	}
	return b, pcs, entries
}

func TestCreateBudgetWithEntries(t *testing.T) {
	s := New()
	b, pcs, entries := seedBudget(t, s)

	if b.ID == 0 {
		t.Fatal("budget id not assigned")
	}
	if len(pcs) != 2 || len(entries) != 2 {
		t.Fatalf("got %d paychecks, %d entries", len(pcs), len(entries))
	}
	for i, e := range entries {
		if e.BudgetID != b.ID {
			t.Errorf("entry %d: budget id = %d, want %d", i, e.BudgetID, b.ID)
		}
		if e.SortOrder != i {
			t.Errorf("entry %d: sort order = %d, want %d", i, e.SortOrder, i)
		}
	}
	if entries[0].PaycheckID != pcs[0].ID || entries[1].PaycheckID != pcs[1].ID {
		t.Error("entries not linked to paychecks by index")
	}
}

func TestCreateBudgetDuplicateLabel(t *testing.T) {
	s := New()
	seedBudget(t, s)
	_, _, _, err := s.CreateBudgetWithEntries(context.Background(), core.CreateBudgetInput{
		UserID:         1,
		Name:           "September again",
		Label:          "2026-09",
		IncomeCents:    1000,
		Cadence:        core.Monthly,
		PayPeriodIndex: 1,
		StartDate:      mustDate(t, 2026, 9, 1),
		EndDate:        mustDate(t, 2026, 9, 30),
		Paychecks:      []core.PaycheckInput{{Index: 1, PayDate: mustDate(t, 2026, 9, 1), AmountCents: 1000}},
		Entries:        []core.NewEntryInput{{CategoryID: 1, PaycheckIndex: 1, PlannedCents: 500}},
	})
	if !core.IsConflict(err) {
		t.Fatalf("duplicate label: got %v, want conflict", err)
	}
}

func TestReorderEntries(t *testing.T) {
	s := New()
	b, _, entries := seedBudget(t, s)
	ctx := context.Background()

	if err := s.ReorderEntries(ctx, b.ID, []int64{entries[1].ID, entries[0].ID}); err != nil {
		t.Fatalf("ReorderEntries: %v", err)
	}
	got, err := s.ListEntries(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if got[0].ID != entries[1].ID || got[1].ID != entries[0].ID {
		t.Errorf("order after reorder = [%d %d], want [%d %d]", got[0].ID, got[1].ID, entries[1].ID, entries[0].ID)
	}
}

func TestReorderEntriesRejectsBadSets(t *testing.T) {
	s := New()
	b, _, entries := seedBudget(t, s)
	ctx := context.Background()

	cases := map[string][]int64{
		"missing":   {entries[0].ID},
		"duplicate": {entries[0].ID, entries[0].ID},
		"foreign":   {entries[0].ID, 9999},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			if err := s.ReorderEntries(ctx, b.ID, ids); !core.IsValidation(err) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}

	// A rejected reorder must leave the order untouched.
	got, _ := s.ListEntries(ctx, b.ID)
	if got[0].ID != entries[0].ID || got[1].ID != entries[1].ID {
		t.Error("rejected reorder mutated entry order")
	}
}

func TestDeleteEntryUnlinksTransactions(t *testing.T) {
	s := New()
	_, _, entries := seedBudget(t, s)
	ctx := context.Background()

	txn, err := s.CreateTransaction(ctx, core.Transaction{
		UserID:      1,
		AccountID:   1,
		EntryID:     &entries[0].ID,
		AmountCents: -75000,
		Kind:        core.KindExpense,
		Status:      core.StatusPaid,
		Type:        core.TypeOccurred,
		Date:        mustDate(t, 2026, 9, 6),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := s.DeleteEntry(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	got, err := s.FindTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("FindTransaction: %v", err)
	}
	if got.EntryID != nil {
		t.Errorf("transaction still linked to deleted entry %d", *got.EntryID)
	}
}

func TestDeleteBudgetCascades(t *testing.T) {
	s := New()
	b, _, entries := seedBudget(t, s)
	ctx := context.Background()

	txn, err := s.CreateTransaction(ctx, core.Transaction{
		UserID: 1, AccountID: 1, EntryID: &entries[1].ID,
		AmountCents: -10000, Kind: core.KindExpense,
		Status: core.StatusPaid, Type: core.TypeOccurred,
		Date: mustDate(t, 2026, 9, 20),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := s.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := s.FindBudget(ctx, b.ID); !core.IsNotFound(err) {
		t.Errorf("budget still present after delete: %v", err)
	}
	if pcs, _ := s.ListPaychecks(ctx, b.ID); len(pcs) != 0 {
		t.Errorf("paychecks survived cascade: %d", len(pcs))
	}
	if es, _ := s.ListEntries(ctx, b.ID); len(es) != 0 {
		t.Errorf("entries survived cascade: %d", len(es))
	}
	got, err := s.FindTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("FindTransaction: %v", err)
	}
	if got.EntryID != nil {
		t.Error("transaction not unlinked by budget cascade")
	}
}

func TestAssignTransactionReplacesLink(t *testing.T) {
	s := New()
	_, _, entries := seedBudget(t, s)
	ctx := context.Background()

	txn, err := s.CreateTransaction(ctx, core.Transaction{
		UserID: 1, AccountID: 1, EntryID: &entries[0].ID,
		AmountCents: -5000, Kind: core.KindExpense,
		Status: core.StatusPaid, Type: core.TypeOccurred,
		Date: mustDate(t, 2026, 9, 10),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := s.AssignTransaction(ctx, txn.ID, &entries[1].ID)
	if err != nil {
		t.Fatalf("AssignTransaction: %v", err)
	}
	if got.EntryID == nil || *got.EntryID != entries[1].ID {
		t.Fatal("assignment did not replace the entry link")
	}

	got, err = s.AssignTransaction(ctx, txn.ID, nil)
	if err != nil {
		t.Fatalf("AssignTransaction detach: %v", err)
	}
	if got.EntryID != nil {
		t.Error("detach left the entry link set")
	}

	if _, err := s.AssignTransaction(ctx, txn.ID, ptr(int64(9999))); !core.IsNotFound(err) {
		t.Errorf("assign to missing entry: got %v, want not found", err)
	}
}

func TestUpdateEntriesAtomic(t *testing.T) {
	s := New()
	b, _, entries := seedBudget(t, s)
	ctx := context.Background()

	newPlanned := int64(90000)
	err := s.UpdateEntries(ctx, b.ID, []core.EntryPatch{
		{EntryID: entries[0].ID, PlannedCents: &newPlanned},
		{EntryID: 9999, PlannedCents: &newPlanned},
	})
	if !core.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
	got, err := s.FindEntry(ctx, entries[0].ID)
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	if got.PlannedCents != 80000 {
		t.Errorf("failed batch mutated entry: planned = %d", got.PlannedCents)
	}
}

func TestDeleteCycleCascadesDailyExpenses(t *testing.T) {
	s := New()
	ctx := context.Background()

	cycle, err := s.CreateCycle(ctx, core.TwelveWeekCycle{
		UserID:           1,
		Label:            "Q4 push",
		StartDate:        mustDate(t, 2026, 9, 1),
		EndDate:          mustDate(t, 2026, 11, 23),
		TotalBudgetCents: 500000,
	})
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	exp, err := s.CreateDailyExpense(ctx, core.DailyExpense{
		UserID:      1,
		CycleID:     &cycle.ID,
		Date:        mustDate(t, 2026, 9, 3),
		AmountCents: 1200,
		Title:       "coffee",
		Status:      core.StatusPaid,
		Type:        core.TypeOccurred,
	})
	if err != nil {
		t.Fatalf("CreateDailyExpense: %v", err)
	}

	if err := s.DeleteCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("DeleteCycle: %v", err)
	}
	if _, err := s.FindDailyExpense(ctx, exp.ID); !core.IsNotFound(err) {
		t.Errorf("daily expense survived cycle delete: %v", err)
	}
}

func TestListDailyExpensesOrderedByDate(t *testing.T) {
	s := New()
	ctx := context.Background()

	cycle, err := s.CreateCycle(ctx, core.TwelveWeekCycle{
		UserID: 1, Label: "order", StartDate: mustDate(t, 2026, 9, 1),
		EndDate: mustDate(t, 2026, 11, 23), TotalBudgetCents: 100000,
	})
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}
	dates := []core.Date{mustDate(t, 2026, 9, 10), mustDate(t, 2026, 9, 2), mustDate(t, 2026, 9, 5)}
	for _, d := range dates {
		if _, err := s.CreateDailyExpense(ctx, core.DailyExpense{
			UserID: 1, CycleID: &cycle.ID, Date: d, AmountCents: 100,
			Title: "x", Status: core.StatusPaid, Type: core.TypeOccurred,
		}); err != nil {
			t.Fatalf("CreateDailyExpense: %v", err)
		}
	}
	got, err := s.ListDailyExpensesByCycle(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("ListDailyExpensesByCycle: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date.Time) {
			t.Fatalf("expenses not date ordered at %d", i)
		}
	}
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	b, _, entries := seedBudget(t, s)
	ctx := context.Background()

	e, err := s.FindEntry(ctx, entries[0].ID)
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	*e.Note = "mutated by caller"

	again, err := s.FindEntry(ctx, entries[0].ID)
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	if *again.Note != "first half rent" {
		t.Error("store state aliased to caller copy")
	}
	_ = b
}

func ptr[T any](v T) *T { return &v }
