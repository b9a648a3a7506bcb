package core

// Derived figures. Actuals are a computed projection over the current store
// snapshot, never a persisted column.

// EntryActuals is an entry plus the spend reconciled against it. ActualCents
// is positive spend (the negated sum of signed linked transaction cents);
// RemainingCents = planned minus actual and goes negative on overspend.
type EntryActuals struct {
	Entry          BudgetEntry `json:"entry"`
	ActualCents    int64       `json:"actual_cents"`
	RemainingCents int64       `json:"remaining_cents"`
}

type BudgetSummary struct {
	Budget            Budget `json:"budget"`
	TotalPlannedCents int64  `json:"total_planned_cents"`
	TotalActualCents  int64  `json:"total_actual_cents"`
	RemainingCents    int64  `json:"remaining_cents"`
}

type BudgetWithEntries struct {
	Budget    Budget         `json:"budget"`
	Paychecks []Paycheck     `json:"paychecks"`
	Entries   []EntryActuals `json:"entries"`
}

// TwelveWeekCycleSummary reconciles a cycle's budget total against its daily
// expense log.
type TwelveWeekCycleSummary struct {
	Cycle             TwelveWeekCycle `json:"cycle"`
	TotalPlannedCents int64           `json:"total_planned_cents"`
	TotalActualCents  int64           `json:"total_actual_cents"`
}

type CategoryTotal struct {
	CategoryID int64 `json:"category_id"`
	SpentCents int64 `json:"spent_cents"`
}

// DailyTotal is one day's rollup: every distinct date with at least one
// expense yields exactly one total.
type DailyTotal struct {
	Date       Date            `json:"date"`
	SpentCents int64           `json:"spent_cents"`
	ByCategory []CategoryTotal `json:"by_category"`
}
