package core

import "strings"

// Inputs and patches accepted by the mutation engines. Patch fields are
// pointers: nil means "leave unchanged".

type (
	PaycheckInput struct {
		Index       int
		PayDate     Date
		AmountCents int64
	}

	NewEntryInput struct {
		CategoryID    int64
		PaycheckIndex int
		PlannedCents  int64
		Note          *string
	}

	// CreateBudgetInput builds a budget and its entries in one atomic go:
	// "build my bi-weekly template and save it".
	CreateBudgetInput struct {
		UserID         int64
		HouseholdID    *int64
		Name           string
		Label          string
		IncomeCents    int64
		Cadence        PayCadence
		PayPeriodIndex int
		StartDate      Date
		EndDate        Date
		Paychecks      []PaycheckInput
		Entries        []NewEntryInput
	}

	// BudgetPatch tweaks an existing budget (rename, dates, cycle link).
	BudgetPatch struct {
		Label          *string
		StartDate      *Date
		EndDate        *Date
		Cadence        *PayCadence
		PayPeriodIndex *int
		CycleID        *int64
		DetachCycle    bool
	}

	EntryPatch struct {
		EntryID      int64
		PlannedCents *int64
		Note         *string
		ClearNote    bool
		SortOrder    *int
	}

	UpdateBudgetWithEntriesInput struct {
		Budget  BudgetPatch
		Entries []EntryPatch
	}

	// UpsertEntryInput updates the entry identified by EntryID, or appends a
	// new entry at the end of the current sort order when EntryID is nil.
	UpsertEntryInput struct {
		BudgetID     int64
		UserID       int64
		HouseholdID  *int64
		EntryID      *int64
		CategoryID   int64
		PaycheckID   int64
		PlannedCents int64
		SortOrder    *int
		Note         *string
	}

	ReorderEntriesInput struct {
		BudgetID        int64
		UserID          int64
		HouseholdID     *int64
		OrderedEntryIDs []int64
	}

	// UpsertCycleInput creates or edits a twelve-week cycle.
	UpsertCycleInput struct {
		CycleID          *int64
		UserID           int64
		HouseholdID      *int64
		Label            string
		StartDate        Date
		EndDate          Date
		TotalBudgetCents int64
		Goal             *string
	}

	UpsertDailyExpenseInput struct {
		ExpenseID   *int64
		UserID      int64
		HouseholdID *int64
		CycleID     *int64
		CategoryID  *int64
		Date        Date
		AmountCents int64
		Title       string
		Status      ExpenseStatus
		Type        ExpenseType
	}

	CreateTransactionInput struct {
		UserID      int64
		AccountID   int64
		CategoryID  *int64
		HouseholdID *int64
		EntryID     *int64
		AmountCents int64
		Kind        TransactionKind
		Status      ExpenseStatus
		Type        ExpenseType
		Date        Date
		Note        *string
	}

	TransactionPatch struct {
		AmountCents *int64
		Kind        *TransactionKind
		Status      *ExpenseStatus
		Type        *ExpenseType
		Date        *Date
		CategoryID  *int64
		Note        *string
	}

	// AssignTransactionInput re-points a transaction's entry link; a nil
	// EntryID detaches it. BudgetID, when given, pins the budget the caller
	// believes the entry belongs to.
	AssignTransactionInput struct {
		TransactionID int64
		BudgetID      *int64
		EntryID       *int64
		UserID        int64
	}
)

func (in CreateBudgetInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return Validationf("budget name is required")
	}
	if in.IncomeCents < 0 {
		return Validationf("budget income must not be negative, got %d", in.IncomeCents)
	}
	if !in.Cadence.Valid() {
		return Validationf("invalid pay cadence %q", in.Cadence)
	}
	if in.PayPeriodIndex < 1 || in.PayPeriodIndex > 2 {
		return Validationf("invalid pay period index %d", in.PayPeriodIndex)
	}
	if len(in.Entries) == 0 {
		return Validationf("budget requires at least one entry")
	}
	if len(in.Paychecks) == 0 {
		return Validationf("budget requires at least one paycheck")
	}
	seen := make(map[int]bool, len(in.Paychecks))
	for _, pc := range in.Paychecks {
		if pc.Index < 1 || pc.Index > 2 {
			return Validationf("invalid paycheck index %d", pc.Index)
		}
		if seen[pc.Index] {
			return Conflictf("duplicate paycheck index %d", pc.Index)
		}
		seen[pc.Index] = true
		if pc.AmountCents < 0 {
			return Validationf("paycheck amount must not be negative, got %d", pc.AmountCents)
		}
		if err := pc.PayDate.Validate(); err != nil {
			return err
		}
	}
	for i, e := range in.Entries {
		if e.CategoryID <= 0 {
			return Validationf("entry %d: category is required", i)
		}
		if e.PlannedCents < 0 {
			return Validationf("entry %d: planned amount must not be negative, got %d", i, e.PlannedCents)
		}
		if !seen[e.PaycheckIndex] {
			return Validationf("entry %d: unknown paycheck index %d", i, e.PaycheckIndex)
		}
	}
	return nil
}

func (p BudgetPatch) Validate() error {
	if p.Cadence != nil && !p.Cadence.Valid() {
		return Validationf("invalid pay cadence %q", *p.Cadence)
	}
	if p.PayPeriodIndex != nil && (*p.PayPeriodIndex < 1 || *p.PayPeriodIndex > 2) {
		return Validationf("invalid pay period index %d", *p.PayPeriodIndex)
	}
	if p.CycleID != nil && p.DetachCycle {
		return Validationf("cannot both set and detach cycle link")
	}
	return nil
}

func (p EntryPatch) Validate() error {
	if p.EntryID <= 0 {
		return Validationf("entry id is required")
	}
	if p.PlannedCents != nil && *p.PlannedCents < 0 {
		return Validationf("planned amount must not be negative, got %d", *p.PlannedCents)
	}
	return nil
}

func (in UpsertEntryInput) Validate() error {
	if in.BudgetID <= 0 {
		return Validationf("budget id is required")
	}
	if in.PlannedCents < 0 {
		return Validationf("planned amount must not be negative, got %d", in.PlannedCents)
	}
	if in.EntryID == nil {
		if in.CategoryID <= 0 {
			return Validationf("category is required")
		}
		if in.PaycheckID <= 0 {
			return Validationf("paycheck is required")
		}
	}
	return nil
}

func (in UpsertCycleInput) Validate() error {
	return TwelveWeekCycle{
		UserID:           in.UserID,
		HouseholdID:      in.HouseholdID,
		Label:            in.Label,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		TotalBudgetCents: in.TotalBudgetCents,
		Goal:             in.Goal,
	}.Validate()
}

func (in UpsertDailyExpenseInput) Validate() error {
	return DailyExpense{
		UserID:      in.UserID,
		CycleID:     in.CycleID,
		CategoryID:  in.CategoryID,
		Date:        in.Date,
		AmountCents: in.AmountCents,
		Title:       in.Title,
		Status:      in.Status,
		Type:        in.Type,
	}.Validate()
}

func (in CreateTransactionInput) Validate() error {
	if in.AccountID <= 0 {
		return Validationf("account is required")
	}
	return Transaction{
		UserID:      in.UserID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		HouseholdID: in.HouseholdID,
		EntryID:     in.EntryID,
		AmountCents: in.AmountCents,
		Kind:        in.Kind,
		Status:      in.Status,
		Type:        in.Type,
		Date:        in.Date,
		Note:        in.Note,
	}.Validate()
}
