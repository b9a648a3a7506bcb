package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"busta/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "busta.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedBudget(t *testing.T, repo *Repository) (core.Budget, []core.Paycheck, []core.BudgetEntry) {
	t.Helper()
	b, pcs, entries, err := repo.CreateBudgetWithEntries(context.Background(), core.CreateBudgetInput{
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
	return b, pcs, entries
}

func TestCreateAndFindBudget(t *testing.T) {
	repo := newTestRepo(t)
	b, pcs, entries := seedBudget(t, repo)
	ctx := context.Background()

	got, err := repo.FindBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("FindBudget: %v", err)
	}
	if got.Label != "2026-09" || got.IncomeCents != 200000 || got.Cadence != core.Biweekly {
		t.Errorf("round-tripped budget mismatch: %+v", got)
	}
	if !got.StartDate.Equal(core.NewDate(2026, 9, 1).Time) {
		t.Errorf("start date = %s", got.StartDate)
	}

	gotPcs, err := repo.ListPaychecks(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListPaychecks: %v", err)
	}
	if len(gotPcs) != len(pcs) {
		t.Fatalf("got %d paychecks, want %d", len(gotPcs), len(pcs))
	}

	gotEntries, err := repo.ListEntries(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(gotEntries) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(gotEntries), len(entries))
	}
	if gotEntries[0].SortOrder != 0 || gotEntries[1].SortOrder != 1 {
		t.Error("entries not in insertion sort order")
	}
}

func TestDuplicateLabelConflicts(t *testing.T) {
	repo := newTestRepo(t)
	seedBudget(t, repo)

	_, _, _, err := repo.CreateBudgetWithEntries(context.Background(), core.CreateBudgetInput{
		UserID:         1,
		Name:           "again",
		Label:          "2026-09",
		IncomeCents:    1000,
		Cadence:        core.Monthly,
		PayPeriodIndex: 1,
		StartDate:      core.NewDate(2026, 9, 1),
		EndDate:        core.NewDate(2026, 9, 30),
		Paychecks:      []core.PaycheckInput{{Index: 1, PayDate: core.NewDate(2026, 9, 1), AmountCents: 1000}},
		Entries:        []core.NewEntryInput{{CategoryID: 1, PaycheckIndex: 1, PlannedCents: 500}},
	})
	if !core.IsConflict(err) {
		t.Fatalf("duplicate label: got %v, want conflict", err)
	}
}

func TestReorderAndFailureLeavesOrder(t *testing.T) {
	repo := newTestRepo(t)
	b, _, entries := seedBudget(t, repo)
	ctx := context.Background()

	if err := repo.ReorderEntries(ctx, b.ID, []int64{entries[1].ID, entries[0].ID}); err != nil {
		t.Fatalf("ReorderEntries: %v", err)
	}
	got, _ := repo.ListEntries(ctx, b.ID)
	if got[0].ID != entries[1].ID {
		t.Fatal("reorder not applied")
	}

	if err := repo.ReorderEntries(ctx, b.ID, []int64{entries[0].ID, 9999}); !core.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
	got, _ = repo.ListEntries(ctx, b.ID)
	if got[0].ID != entries[1].ID {
		t.Error("failed reorder mutated order")
	}
}

func TestInsertEntryRejectsForeignPaycheck(t *testing.T) {
	repo := newTestRepo(t)
	b, _, _ := seedBudget(t, repo)
	ctx := context.Background()

	_, otherPcs, _, err := repo.CreateBudgetWithEntries(ctx, core.CreateBudgetInput{
		UserID:         1,
		Name:           "October",
		Label:          "2026-10",
		IncomeCents:    100000,
		Cadence:        core.Monthly,
		PayPeriodIndex: 1,
		StartDate:      core.NewDate(2026, 10, 1),
		EndDate:        core.NewDate(2026, 10, 31),
		Paychecks:      []core.PaycheckInput{{Index: 1, PayDate: core.NewDate(2026, 10, 1), AmountCents: 100000}},
		Entries:        []core.NewEntryInput{{CategoryID: 1, PaycheckIndex: 1, PlannedCents: 500}},
	})
	if err != nil {
		t.Fatalf("CreateBudgetWithEntries: %v", err)
	}

	_, err = repo.InsertEntry(ctx, core.BudgetEntry{
		BudgetID:     b.ID,
		PaycheckID:   otherPcs[0].ID,
		CategoryID:   10,
		PlannedCents: 100,
	})
	if !core.IsValidation(err) {
		t.Errorf("foreign paycheck: got %v, want validation error", err)
	}

	_, err = repo.InsertEntry(ctx, core.BudgetEntry{
		BudgetID:     b.ID,
		PaycheckID:   9999,
		CategoryID:   10,
		PlannedCents: 100,
	})
	if !core.IsNotFound(err) {
		t.Errorf("missing paycheck: got %v, want not found", err)
	}
}

func TestUpdateBudgetWithEntriesRollsBackOnBadEntry(t *testing.T) {
	repo := newTestRepo(t)
	b, _, entries := seedBudget(t, repo)
	ctx := context.Background()

	label := "2026-09-revised"
	planned := int64(90000)
	_, err := repo.UpdateBudgetWithEntries(ctx, b.ID, core.BudgetPatch{Label: &label}, []core.EntryPatch{
		{EntryID: entries[0].ID, PlannedCents: &planned},
		{EntryID: 9999, PlannedCents: &planned},
	})
	if !core.IsValidation(err) {
		t.Fatalf("bad entry batch: got %v, want validation error", err)
	}

	got, err := repo.FindBudget(ctx, b.ID)
	if err != nil {
		t.Fatalf("FindBudget: %v", err)
	}
	if got.Label != "2026-09" {
		t.Errorf("label = %q, want the pre-patch label", got.Label)
	}
	es, err := repo.ListEntries(ctx, b.ID)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if es[0].PlannedCents != 80000 {
		t.Errorf("entry planned = %d, want 80000 after rollback", es[0].PlannedCents)
	}
}

func TestDeleteEntryUnlinksTransactions(t *testing.T) {
	repo := newTestRepo(t)
	_, _, entries := seedBudget(t, repo)
	ctx := context.Background()

	txn, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: 1, AccountID: 1, EntryID: &entries[0].ID,
		AmountCents: -75000, Kind: core.KindExpense,
		Status: core.StatusPaid, Type: core.TypeOccurred,
		Date: core.NewDate(2026, 9, 6),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := repo.DeleteEntry(ctx, entries[0].ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	got, err := repo.FindTransaction(ctx, txn.ID)
	if err != nil {
		t.Fatalf("FindTransaction: %v", err)
	}
	if got.EntryID != nil {
		t.Error("transaction still linked after entry delete")
	}
}

func TestDeleteBudgetCascades(t *testing.T) {
	repo := newTestRepo(t)
	b, _, _ := seedBudget(t, repo)
	ctx := context.Background()

	if err := repo.DeleteBudget(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if _, err := repo.FindBudget(ctx, b.ID); !core.IsNotFound(err) {
		t.Errorf("budget survived delete: %v", err)
	}
	if pcs, _ := repo.ListPaychecks(ctx, b.ID); len(pcs) != 0 {
		t.Error("paychecks survived cascade")
	}
	if es, _ := repo.ListEntries(ctx, b.ID); len(es) != 0 {
		t.Error("entries survived cascade")
	}
}

func TestCycleRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	goal := "no takeout"
	cycle, err := repo.CreateCycle(ctx, core.TwelveWeekCycle{
		UserID: 1, Label: "Q4 push",
		StartDate: core.NewDate(2026, 9, 1), EndDate: core.NewDate(2026, 11, 23),
		TotalBudgetCents: 500000, Goal: &goal,
	})
	if err != nil {
		t.Fatalf("CreateCycle: %v", err)
	}

	exp, err := repo.CreateDailyExpense(ctx, core.DailyExpense{
		UserID: 1, CycleID: &cycle.ID,
		Date: core.NewDate(2026, 9, 3), AmountCents: 1200,
		Title: "coffee", Status: core.StatusPaid, Type: core.TypeOccurred,
	})
	if err != nil {
		t.Fatalf("CreateDailyExpense: %v", err)
	}

	got, err := repo.FindCycle(ctx, cycle.ID)
	if err != nil {
		t.Fatalf("FindCycle: %v", err)
	}
	if got.Goal == nil || *got.Goal != goal {
		t.Errorf("goal round-trip: %v", got.Goal)
	}

	if err := repo.DeleteCycle(ctx, cycle.ID); err != nil {
		t.Fatalf("DeleteCycle: %v", err)
	}
	if _, err := repo.FindDailyExpense(ctx, exp.ID); !core.IsNotFound(err) {
		t.Errorf("daily expense survived cycle delete: %v", err)
	}
}
