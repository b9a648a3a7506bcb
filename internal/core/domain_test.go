package core

import "testing"

func TestPayCadenceValid(t *testing.T) {
	for _, c := range []PayCadence{Weekly, Biweekly, Monthly, Yearly} {
		if !c.Valid() {
			t.Fatalf("%q should be valid", c)
		}
	}
	for _, c := range []PayCadence{"", "daily", "fortnightly"} {
		if c.Valid() {
			t.Fatalf("%q should be invalid", c)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		UserID:      1,
		AccountID:   1,
		AmountCents: -7500,
		Kind:        KindExpense,
		Status:      StatusPaid,
		Type:        TypeOccurred,
		Date:        NewDate(2026, 1, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Transaction)
	}{
		{"bad kind", func(tx *Transaction) { tx.Kind = "refund" }},
		{"bad status", func(tx *Transaction) { tx.Status = "pending" }},
		{"bad type", func(tx *Transaction) { tx.Type = "maybe" }},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }},
		{"positive expense", func(tx *Transaction) { tx.AmountCents = 100 }},
		{"negative income", func(tx *Transaction) { tx.Kind = KindIncome; tx.AmountCents = -100 }},
	}
	for _, tc := range cases {
		tx := good
		tc.mut(&tx)
		if err := tx.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		} else if !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCycleValidate(t *testing.T) {
	good := TwelveWeekCycle{
		UserID:           1,
		Label:            "Q1 push",
		StartDate:        NewDate(2026, 1, 1),
		EndDate:          NewDate(2026, 3, 25),
		TotalBudgetCents: 120000,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	inverted := good
	inverted.EndDate = NewDate(2025, 12, 31)
	if err := inverted.Validate(); err == nil {
		t.Fatal("expected error for end before start")
	}

	sameDay := good
	sameDay.EndDate = sameDay.StartDate
	if err := sameDay.Validate(); err == nil {
		t.Fatal("expected error for end equal to start")
	}

	negative := good
	negative.TotalBudgetCents = -1
	if err := negative.Validate(); err == nil {
		t.Fatal("expected error for negative total")
	}
}

func TestCreateBudgetInputValidate(t *testing.T) {
	good := CreateBudgetInput{
		UserID:         1,
		Name:           "January",
		Label:          "Jan 2026 - Paycheck 1",
		IncomeCents:    200000,
		Cadence:        Biweekly,
		PayPeriodIndex: 1,
		Paychecks: []PaycheckInput{
			{Index: 1, PayDate: NewDate(2026, 1, 1), AmountCents: 100000},
			{Index: 2, PayDate: NewDate(2026, 1, 15), AmountCents: 100000},
		},
		Entries: []NewEntryInput{
			{CategoryID: 1, PaycheckIndex: 1, PlannedCents: 80000},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noEntries := good
	noEntries.Entries = nil
	if err := noEntries.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for empty entries, got %v", err)
	}

	negIncome := good
	negIncome.IncomeCents = -1
	if err := negIncome.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for negative income, got %v", err)
	}

	badCadence := good
	badCadence.Cadence = "daily"
	if err := badCadence.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for bad cadence, got %v", err)
	}

	dupPaycheck := good
	dupPaycheck.Paychecks = []PaycheckInput{
		{Index: 1, PayDate: NewDate(2026, 1, 1), AmountCents: 1},
		{Index: 1, PayDate: NewDate(2026, 1, 15), AmountCents: 1},
	}
	if err := dupPaycheck.Validate(); err == nil || !IsConflict(err) {
		t.Fatalf("expected conflict for duplicate paycheck index, got %v", err)
	}

	orphanEntry := good
	orphanEntry.Entries = []NewEntryInput{{CategoryID: 1, PaycheckIndex: 9, PlannedCents: 1}}
	if err := orphanEntry.Validate(); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error for unknown paycheck index, got %v", err)
	}
}

func TestDateWithin(t *testing.T) {
	start, end := NewDate(2026, 1, 1), NewDate(2026, 3, 25)
	cases := []struct {
		d    Date
		want bool
	}{
		{NewDate(2026, 1, 1), true},
		{NewDate(2026, 3, 25), true},
		{NewDate(2026, 2, 14), true},
		{NewDate(2025, 12, 31), false},
		{NewDate(2026, 3, 26), false},
	}
	for _, tc := range cases {
		if got := tc.d.Within(start, end); got != tc.want {
			t.Fatalf("%s within [%s,%s] = %v, want %v", tc.d, start, end, got, tc.want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{Validationf("bad"), KindValidation},
		{NotFoundf("missing"), KindNotFound},
		{Forbiddenf("not yours"), KindForbidden},
		{Conflictf("duplicate"), KindConflict},
		{StoreErr("query", nil), KindStore},
	}
	for _, tc := range cases {
		if KindOf(tc.err) != tc.kind {
			t.Fatalf("expected kind %q, got %q", tc.kind, KindOf(tc.err))
		}
	}
}
