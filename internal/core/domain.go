package core

import (
	"strings"
	"time"
)

const (
	Weekly   PayCadence = "weekly"
	Biweekly PayCadence = "biweekly"
	Monthly  PayCadence = "monthly"
	Yearly   PayCadence = "yearly"
)

const (
	StatusPaid    ExpenseStatus = "paid"
	StatusUnpaid  ExpenseStatus = "unpaid"
	StatusPartial ExpenseStatus = "partial"
)

const (
	TypeAnticipated ExpenseType = "anticipated"
	TypeOccurred    ExpenseType = "occurred"
)

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

const (
	VisibilityHousehold AccountVisibility = "household"
	VisibilityPersonal  AccountVisibility = "personal"
)

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
	RoleUser   UserRole = "user"
)

type (
	PayCadence        string
	ExpenseStatus     string
	ExpenseType       string
	TransactionKind   string
	AccountVisibility string
	UserRole          string

	Household struct {
		ID   int64
		Name string
	}

	User struct {
		ID          int64
		Email       string
		Name        string
		Role        UserRole
		HouseholdID *int64
	}

	BankAccount struct {
		ID         int64
		UserID     int64
		Name       string
		Visibility AccountVisibility
	}

	Category struct {
		ID     int64
		UserID int64
		Name   string
	}

	// Budget is a planning container for one pay cadence: an income figure
	// plus a set of entries split across paychecks.
	Budget struct {
		ID             int64      `json:"id"`
		UserID         int64      `json:"user_id"`
		HouseholdID    *int64     `json:"household_id,omitempty"`
		Name           string     `json:"name"`
		Label          string     `json:"label"`
		IncomeCents    int64      `json:"income_cents"`
		Cadence        PayCadence `json:"cadence"`
		PayPeriodIndex int        `json:"pay_period_index"`
		StartDate      Date       `json:"start_date"`
		EndDate        Date       `json:"end_date"`
		CycleID        *int64     `json:"cycle_id,omitempty"`
		CreatedAt      time.Time  `json:"created_at"`
	}

	// Paycheck is one income occurrence within a budget's cadence.
	// Index is unique per budget (1 = first paycheck of the period).
	Paycheck struct {
		ID          int64 `json:"id"`
		BudgetID    int64 `json:"budget_id"`
		Index       int   `json:"index"`
		PayDate     Date  `json:"pay_date"`
		AmountCents int64 `json:"amount_cents"`
	}

	// BudgetEntry is a planned allocation line, tied to a category and
	// exactly one paycheck of its budget.
	BudgetEntry struct {
		ID           int64   `json:"id"`
		BudgetID     int64   `json:"budget_id"`
		PaycheckID   int64   `json:"paycheck_id"`
		CategoryID   int64   `json:"category_id"`
		PlannedCents int64   `json:"planned_cents"`
		SortOrder    int     `json:"sort_order"`
		Note         *string `json:"note,omitempty"`
		TransferID   *int64  `json:"transfer_id,omitempty"`
	}

	// Transaction amounts are signed cents: expense < 0, income > 0.
	// A transaction is linked to at most one budget entry at a time.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		AccountID   int64           `json:"account_id"`
		CategoryID  *int64          `json:"category_id,omitempty"`
		HouseholdID *int64          `json:"household_id,omitempty"`
		EntryID     *int64          `json:"entry_id"`
		AmountCents int64           `json:"amount_cents"`
		Kind        TransactionKind `json:"kind"`
		Status      ExpenseStatus   `json:"status"`
		Type        ExpenseType     `json:"type"`
		Date        Date            `json:"date"`
		Note        *string         `json:"note,omitempty"`
	}

	TwelveWeekCycle struct {
		ID               int64   `json:"id"`
		UserID           int64   `json:"user_id"`
		HouseholdID      *int64  `json:"household_id,omitempty"`
		Label            string  `json:"label"`
		StartDate        Date    `json:"start_date"`
		EndDate          Date    `json:"end_date"`
		TotalBudgetCents int64   `json:"total_budget_cents"`
		Goal             *string `json:"goal,omitempty"`
	}

	DailyExpense struct {
		ID          int64         `json:"id"`
		UserID      int64         `json:"user_id"`
		CycleID     *int64        `json:"cycle_id,omitempty"`
		CategoryID  *int64        `json:"category_id,omitempty"`
		Date        Date          `json:"date"`
		AmountCents int64         `json:"amount_cents"`
		Title       string        `json:"title"`
		Status      ExpenseStatus `json:"status"`
		Type        ExpenseType   `json:"type"`
	}
)

func (c PayCadence) Valid() bool {
	switch c {
	case Weekly, Biweekly, Monthly, Yearly:
		return true
	}
	return false
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusUnpaid, StatusPartial:
		return true
	}
	return false
}

func (t ExpenseType) Valid() bool {
	return t == TypeAnticipated || t == TypeOccurred
}

func (k TransactionKind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindTransfer:
		return true
	}
	return false
}

func (v AccountVisibility) Valid() bool {
	return v == VisibilityHousehold || v == VisibilityPersonal
}

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleUser:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return Validationf("invalid transaction kind %q", t.Kind)
	}
	if !t.Status.Valid() {
		return Validationf("invalid expense status %q", t.Status)
	}
	if !t.Type.Valid() {
		return Validationf("invalid expense type %q", t.Type)
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	// The sign encodes direction; the kind must agree with it.
	switch t.Kind {
	case KindExpense:
		if t.AmountCents > 0 {
			return Validationf("expense amount must not be positive, got %d", t.AmountCents)
		}
	case KindIncome:
		if t.AmountCents < 0 {
			return Validationf("income amount must not be negative, got %d", t.AmountCents)
		}
	}
	return nil
}

func (c TwelveWeekCycle) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return Validationf("cycle label is required")
	}
	if err := c.StartDate.Validate(); err != nil {
		return err
	}
	if err := c.EndDate.Validate(); err != nil {
		return err
	}
	if !c.EndDate.After(c.StartDate.Time) {
		return Validationf("cycle end date must be after start date")
	}
	if c.TotalBudgetCents < 0 {
		return Validationf("cycle total budget must not be negative, got %d", c.TotalBudgetCents)
	}
	return nil
}

func (e DailyExpense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return Validationf("daily expense title is required")
	}
	if e.AmountCents < 0 {
		return Validationf("daily expense amount must not be negative, got %d", e.AmountCents)
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return Validationf("invalid expense status %q", e.Status)
	}
	if !e.Type.Valid() {
		return Validationf("invalid expense type %q", e.Type)
	}
	return nil
}
