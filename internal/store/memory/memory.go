// Package memory is the in-memory Store: the test fake and the default dev
// backend. All reads return copies so callers never alias internal state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"busta/internal/core"
	"busta/internal/store"
)

type Store struct {
	mu sync.Mutex

	budgets   map[int64]core.Budget
	paychecks map[int64]core.Paycheck
	entries   map[int64]core.BudgetEntry
	txns      map[int64]core.Transaction
	cycles    map[int64]core.TwelveWeekCycle
	daily     map[int64]core.DailyExpense

	nextID int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		budgets:   map[int64]core.Budget{},
		paychecks: map[int64]core.Paycheck{},
		entries:   map[int64]core.BudgetEntry{},
		txns:      map[int64]core.Transaction{},
		cycles:    map[int64]core.TwelveWeekCycle{},
		daily:     map[int64]core.DailyExpense{},
	}
}

func (s *Store) newID() int64 {
	s.nextID++
	return s.nextID
}

func cloneI64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBudget(b core.Budget) core.Budget {
	b.HouseholdID = cloneI64(b.HouseholdID)
	b.CycleID = cloneI64(b.CycleID)
	return b
}

func cloneEntry(e core.BudgetEntry) core.BudgetEntry {
	e.Note = cloneStr(e.Note)
	e.TransferID = cloneI64(e.TransferID)
	return e
}

func cloneTxn(t core.Transaction) core.Transaction {
	t.CategoryID = cloneI64(t.CategoryID)
	t.HouseholdID = cloneI64(t.HouseholdID)
	t.EntryID = cloneI64(t.EntryID)
	t.Note = cloneStr(t.Note)
	return t
}

func cloneCycle(c core.TwelveWeekCycle) core.TwelveWeekCycle {
	c.HouseholdID = cloneI64(c.HouseholdID)
	c.Goal = cloneStr(c.Goal)
	return c
}

func cloneDaily(e core.DailyExpense) core.DailyExpense {
	e.CycleID = cloneI64(e.CycleID)
	e.CategoryID = cloneI64(e.CategoryID)
	return e
}

// --- Budgets ---

func (s *Store) FindBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.NotFoundf("budget %d not found", id)
	}
	return cloneBudget(b), nil
}

func (s *Store) ListBudgetsByUser(_ context.Context, userID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, cloneBudget(b))
		}
	}
	sortBudgets(out)
	return out, nil
}

func (s *Store) ListBudgetsByHousehold(_ context.Context, householdID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.HouseholdID != nil && *b.HouseholdID == householdID {
			out = append(out, cloneBudget(b))
		}
	}
	sortBudgets(out)
	return out, nil
}

func sortBudgets(bs []core.Budget) {
	sort.Slice(bs, func(i, j int) bool {
		if !bs[i].CreatedAt.Equal(bs[j].CreatedAt) {
			return bs[i].CreatedAt.Before(bs[j].CreatedAt)
		}
		return bs[i].ID < bs[j].ID
	})
}

func (s *Store) ListPaychecks(_ context.Context, budgetID int64) ([]core.Paycheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Paycheck
	for _, pc := range s.paychecks {
		if pc.BudgetID == budgetID {
			out = append(out, pc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *Store) FindEntry(_ context.Context, entryID int64) (core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return core.BudgetEntry{}, core.NotFoundf("budget entry %d not found", entryID)
	}
	return cloneEntry(e), nil
}

func (s *Store) ListEntries(_ context.Context, budgetID int64) ([]core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listEntriesLocked(budgetID), nil
}

func (s *Store) listEntriesLocked(budgetID int64) []core.BudgetEntry {
	var out []core.BudgetEntry
	for _, e := range s.entries {
		if e.BudgetID == budgetID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) CreateBudgetWithEntries(_ context.Context, in core.CreateBudgetInput) (core.Budget, []core.Paycheck, []core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.budgets {
		if b.UserID == in.UserID && b.Label == in.Label {
			return core.Budget{}, nil, nil, core.Conflictf("budget label %q already exists for user %d", in.Label, in.UserID)
		}
	}

	budget := core.Budget{
		ID:             s.newID(),
		UserID:         in.UserID,
		HouseholdID:    cloneI64(in.HouseholdID),
		Name:           in.Name,
		Label:          in.Label,
		IncomeCents:    in.IncomeCents,
		Cadence:        in.Cadence,
		PayPeriodIndex: in.PayPeriodIndex,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		CreatedAt:      time.Now().UTC(),
	}

	byIndex := make(map[int]int64, len(in.Paychecks))
	paychecks := make([]core.Paycheck, 0, len(in.Paychecks))
	for _, pc := range in.Paychecks {
		row := core.Paycheck{
			ID:          s.newID(),
			BudgetID:    budget.ID,
			Index:       pc.Index,
			PayDate:     pc.PayDate,
			AmountCents: pc.AmountCents,
		}
		byIndex[pc.Index] = row.ID
		paychecks = append(paychecks, row)
	}

	entries := make([]core.BudgetEntry, 0, len(in.Entries))
	for i, e := range in.Entries {
		paycheckID, ok := byIndex[e.PaycheckIndex]
		if !ok {
			// Nothing staged has been committed to the maps yet.
			return core.Budget{}, nil, nil, core.Validationf("entry %d: unknown paycheck index %d", i, e.PaycheckIndex)
		}
		entries = append(entries, core.BudgetEntry{
			ID:           s.newID(),
			BudgetID:     budget.ID,
			PaycheckID:   paycheckID,
			CategoryID:   e.CategoryID,
			PlannedCents: e.PlannedCents,
			SortOrder:    i,
			Note:         cloneStr(e.Note),
		})
	}

	s.budgets[budget.ID] = budget
	for _, pc := range paychecks {
		s.paychecks[pc.ID] = pc
	}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return cloneBudget(budget), paychecks, entries, nil
}

func (s *Store) UpdateBudget(_ context.Context, id int64, patch core.BudgetPatch) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.NotFoundf("budget %d not found", id)
	}
	applyBudgetPatch(&b, patch)
	s.budgets[id] = b
	return cloneBudget(b), nil
}

func applyBudgetPatch(b *core.Budget, patch core.BudgetPatch) {
	if patch.Label != nil {
		b.Label = *patch.Label
	}
	if patch.StartDate != nil {
		b.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		b.EndDate = *patch.EndDate
	}
	if patch.Cadence != nil {
		b.Cadence = *patch.Cadence
	}
	if patch.PayPeriodIndex != nil {
		b.PayPeriodIndex = *patch.PayPeriodIndex
	}
	if patch.DetachCycle {
		b.CycleID = nil
	} else if patch.CycleID != nil {
		b.CycleID = cloneI64(patch.CycleID)
	}
}

func (s *Store) UpdateBudgetWithEntries(_ context.Context, id int64, patch core.BudgetPatch, patches []core.EntryPatch) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, core.NotFoundf("budget %d not found", id)
	}
	// Validate the whole batch before touching anything.
	for _, p := range patches {
		e, ok := s.entries[p.EntryID]
		if !ok || e.BudgetID != id {
			return core.Budget{}, core.Validationf("entry %d does not belong to budget %d", p.EntryID, id)
		}
	}
	for _, p := range patches {
		e := s.entries[p.EntryID]
		applyEntryPatch(&e, p)
		s.entries[p.EntryID] = e
	}
	applyBudgetPatch(&b, patch)
	s.budgets[id] = b
	return cloneBudget(b), nil
}

func (s *Store) UpdateEntries(_ context.Context, budgetID int64, patches []core.EntryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budgetID]; !ok {
		return core.NotFoundf("budget %d not found", budgetID)
	}
	// Validate the whole batch before touching anything.
	for _, p := range patches {
		e, ok := s.entries[p.EntryID]
		if !ok || e.BudgetID != budgetID {
			return core.Validationf("entry %d does not belong to budget %d", p.EntryID, budgetID)
		}
	}
	for _, p := range patches {
		e := s.entries[p.EntryID]
		applyEntryPatch(&e, p)
		s.entries[p.EntryID] = e
	}
	return nil
}

func applyEntryPatch(e *core.BudgetEntry, p core.EntryPatch) {
	if p.PlannedCents != nil {
		e.PlannedCents = *p.PlannedCents
	}
	if p.ClearNote {
		e.Note = nil
	} else if p.Note != nil {
		e.Note = cloneStr(p.Note)
	}
	if p.SortOrder != nil {
		e.SortOrder = *p.SortOrder
	}
}

func (s *Store) InsertEntry(_ context.Context, entry core.BudgetEntry) (core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[entry.BudgetID]; !ok {
		return core.BudgetEntry{}, core.NotFoundf("budget %d not found", entry.BudgetID)
	}
	pc, ok := s.paychecks[entry.PaycheckID]
	if !ok {
		return core.BudgetEntry{}, core.NotFoundf("paycheck %d not found", entry.PaycheckID)
	}
	if pc.BudgetID != entry.BudgetID {
		return core.BudgetEntry{}, core.Validationf("paycheck %d does not belong to budget %d", entry.PaycheckID, entry.BudgetID)
	}
	entry.ID = s.newID()
	entry.Note = cloneStr(entry.Note)
	entry.TransferID = cloneI64(entry.TransferID)
	s.entries[entry.ID] = entry
	return cloneEntry(entry), nil
}

func (s *Store) UpdateEntry(_ context.Context, patch core.EntryPatch) (core.BudgetEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[patch.EntryID]
	if !ok {
		return core.BudgetEntry{}, core.NotFoundf("budget entry %d not found", patch.EntryID)
	}
	applyEntryPatch(&e, patch)
	s.entries[patch.EntryID] = e
	return cloneEntry(e), nil
}

func (s *Store) ReorderEntries(_ context.Context, budgetID int64, orderedIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[budgetID]; !ok {
		return core.NotFoundf("budget %d not found", budgetID)
	}

	current := map[int64]bool{}
	for id, e := range s.entries {
		if e.BudgetID == budgetID {
			current[id] = true
		}
	}
	if len(orderedIDs) != len(current) {
		return core.Validationf("reorder list has %d ids, budget %d has %d entries", len(orderedIDs), budgetID, len(current))
	}
	seen := map[int64]bool{}
	for _, id := range orderedIDs {
		if !current[id] {
			return core.Validationf("entry %d does not belong to budget %d", id, budgetID)
		}
		if seen[id] {
			return core.Validationf("entry %d listed twice", id)
		}
		seen[id] = true
	}

	for pos, id := range orderedIDs {
		e := s.entries[id]
		e.SortOrder = pos
		s.entries[id] = e
	}
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return core.NotFoundf("budget entry %d not found", entryID)
	}
	s.unlinkEntryLocked(entryID)
	delete(s.entries, entryID)
	return nil
}

func (s *Store) unlinkEntryLocked(entryID int64) {
	for id, t := range s.txns {
		if t.EntryID != nil && *t.EntryID == entryID {
			t.EntryID = nil
			s.txns[id] = t
		}
	}
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return core.NotFoundf("budget %d not found", id)
	}
	// Entries first, then paychecks, then the budget row.
	for eid, e := range s.entries {
		if e.BudgetID == id {
			s.unlinkEntryLocked(eid)
			delete(s.entries, eid)
		}
	}
	for pid, pc := range s.paychecks {
		if pc.BudgetID == id {
			delete(s.paychecks, pid)
		}
	}
	delete(s.budgets, id)
	return nil
}

// --- Transactions ---

func (s *Store) FindTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf("transaction %d not found", id)
	}
	return cloneTxn(t), nil
}

func (s *Store) ListTransactionsByUser(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID == userID {
			out = append(out, cloneTxn(t))
		}
	}
	sortTxns(out)
	return out, nil
}

func (s *Store) ListTransactionsByEntry(_ context.Context, entryID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.EntryID != nil && *t.EntryID == entryID {
			out = append(out, cloneTxn(t))
		}
	}
	sortTxns(out)
	return out, nil
}

func (s *Store) ListTransactionsForBudget(_ context.Context, budgetID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.EntryID == nil {
			continue
		}
		if e, ok := s.entries[*t.EntryID]; ok && e.BudgetID == budgetID {
			out = append(out, cloneTxn(t))
		}
	}
	sortTxns(out)
	return out, nil
}

func (s *Store) ListTransactionsByDateRange(_ context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.UserID == userID && t.Date.Within(start, end) {
			out = append(out, cloneTxn(t))
		}
	}
	sortTxns(out)
	return out, nil
}

func sortTxns(ts []core.Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].Date.Equal(ts[j].Date.Time) {
			return ts[i].Date.Before(ts[j].Date.Time)
		}
		return ts[i].ID < ts[j].ID
	})
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.EntryID != nil {
		if _, ok := s.entries[*t.EntryID]; !ok {
			return core.Transaction{}, core.NotFoundf("budget entry %d not found", *t.EntryID)
		}
	}
	t.ID = s.newID()
	t = cloneTxn(t)
	s.txns[t.ID] = t
	return cloneTxn(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf("transaction %d not found", id)
	}
	if patch.AmountCents != nil {
		t.AmountCents = *patch.AmountCents
	}
	if patch.Kind != nil {
		t.Kind = *patch.Kind
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.CategoryID != nil {
		t.CategoryID = cloneI64(patch.CategoryID)
	}
	if patch.Note != nil {
		t.Note = cloneStr(patch.Note)
	}
	s.txns[id] = t
	return cloneTxn(t), nil
}

func (s *Store) AssignTransaction(_ context.Context, id int64, entryID *int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf("transaction %d not found", id)
	}
	if entryID != nil {
		if _, ok := s.entries[*entryID]; !ok {
			return core.Transaction{}, core.NotFoundf("budget entry %d not found", *entryID)
		}
	}
	t.EntryID = cloneI64(entryID)
	s.txns[id] = t
	return cloneTxn(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.txns[id]; !ok {
		return core.NotFoundf("transaction %d not found", id)
	}
	delete(s.txns, id)
	return nil
}

// --- Cycles & daily expenses ---

func (s *Store) FindCycle(_ context.Context, id int64) (core.TwelveWeekCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cycles[id]
	if !ok {
		return core.TwelveWeekCycle{}, core.NotFoundf("cycle %d not found", id)
	}
	return cloneCycle(c), nil
}

func (s *Store) ListCyclesByUser(_ context.Context, userID int64) ([]core.TwelveWeekCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.TwelveWeekCycle
	for _, c := range s.cycles {
		if c.UserID == userID {
			out = append(out, cloneCycle(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCycle(_ context.Context, c core.TwelveWeekCycle) (core.TwelveWeekCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID()
	c = cloneCycle(c)
	s.cycles[c.ID] = c
	return cloneCycle(c), nil
}

func (s *Store) UpdateCycle(_ context.Context, id int64, c core.TwelveWeekCycle) (core.TwelveWeekCycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.cycles[id]
	if !ok {
		return core.TwelveWeekCycle{}, core.NotFoundf("cycle %d not found", id)
	}
	c.ID = prev.ID
	c.UserID = prev.UserID
	c = cloneCycle(c)
	s.cycles[id] = c
	return cloneCycle(c), nil
}

func (s *Store) DeleteCycle(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cycles[id]; !ok {
		return core.NotFoundf("cycle %d not found", id)
	}
	for eid, e := range s.daily {
		if e.CycleID != nil && *e.CycleID == id {
			delete(s.daily, eid)
		}
	}
	delete(s.cycles, id)
	return nil
}

func (s *Store) FindDailyExpense(_ context.Context, id int64) (core.DailyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.daily[id]
	if !ok {
		return core.DailyExpense{}, core.NotFoundf("daily expense %d not found", id)
	}
	return cloneDaily(e), nil
}

func (s *Store) ListDailyExpensesByCycle(_ context.Context, cycleID int64) ([]core.DailyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.DailyExpense
	for _, e := range s.daily {
		if e.CycleID != nil && *e.CycleID == cycleID {
			out = append(out, cloneDaily(e))
		}
	}
	sortDaily(out)
	return out, nil
}

func (s *Store) ListDailyExpensesByUserRange(_ context.Context, userID int64, start, end core.Date) ([]core.DailyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.DailyExpense
	for _, e := range s.daily {
		if e.UserID == userID && e.Date.Within(start, end) {
			out = append(out, cloneDaily(e))
		}
	}
	sortDaily(out)
	return out, nil
}

func sortDaily(es []core.DailyExpense) {
	sort.Slice(es, func(i, j int) bool {
		if !es[i].Date.Equal(es[j].Date.Time) {
			return es[i].Date.Before(es[j].Date.Time)
		}
		return es[i].ID < es[j].ID
	})
}

func (s *Store) CreateDailyExpense(_ context.Context, e core.DailyExpense) (core.DailyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CycleID != nil {
		if _, ok := s.cycles[*e.CycleID]; !ok {
			return core.DailyExpense{}, core.NotFoundf("cycle %d not found", *e.CycleID)
		}
	}
	e.ID = s.newID()
	e = cloneDaily(e)
	s.daily[e.ID] = e
	return cloneDaily(e), nil
}

func (s *Store) UpdateDailyExpense(_ context.Context, id int64, e core.DailyExpense) (core.DailyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.daily[id]
	if !ok {
		return core.DailyExpense{}, core.NotFoundf("daily expense %d not found", id)
	}
	e.ID = prev.ID
	e.UserID = prev.UserID
	e = cloneDaily(e)
	s.daily[id] = e
	return cloneDaily(e), nil
}

func (s *Store) DeleteDailyExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.daily[id]; !ok {
		return core.NotFoundf("daily expense %d not found", id)
	}
	delete(s.daily, id)
	return nil
}
