package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"busta/internal/core"
)

const budgetCols = `id, user_id, household_id, name, label, income_cents, cadence, pay_period_index, start_date, end_date, cycle_id, created_at`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b          core.Budget
		household  sql.NullInt64
		cycle      sql.NullInt64
		start, end string
		created    string
	)
	err := row.Scan(&b.ID, &b.UserID, &household, &b.Name, &b.Label, &b.IncomeCents,
		&b.Cadence, &b.PayPeriodIndex, &start, &end, &cycle, &created)
	if err != nil {
		return core.Budget{}, err
	}
	b.HouseholdID = i64Ptr(household)
	b.CycleID = i64Ptr(cycle)
	if b.StartDate, err = parseDate(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseDate(end); err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	return b, nil
}

func (r *Repository) FindBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, mapErr("find budget", fmt.Sprintf("budget %d", id), err)
	}
	return b, nil
}

func (r *Repository) ListBudgetsByUser(ctx context.Context, userID int64) ([]core.Budget, error) {
	return r.listBudgets(ctx, `SELECT `+budgetCols+` FROM budgets WHERE user_id = ? ORDER BY created_at, id`, userID)
}

func (r *Repository) ListBudgetsByHousehold(ctx context.Context, householdID int64) ([]core.Budget, error) {
	return r.listBudgets(ctx, `SELECT `+budgetCols+` FROM budgets WHERE household_id = ? ORDER BY created_at, id`, householdID)
}

func (r *Repository) listBudgets(ctx context.Context, query string, arg int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, core.StoreErr("list budgets", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, core.StoreErr("scan budget", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreErr("list budgets", err)
	}
	return out, nil
}

func (r *Repository) ListPaychecks(ctx context.Context, budgetID int64) ([]core.Paycheck, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, budget_id, pay_index, pay_date, amount_cents FROM paychecks WHERE budget_id = ? ORDER BY pay_index`,
		budgetID)
	if err != nil {
		return nil, core.StoreErr("list paychecks", err)
	}
	defer rows.Close()

	var out []core.Paycheck
	for rows.Next() {
		var (
			pc      core.Paycheck
			payDate string
		)
		if err := rows.Scan(&pc.ID, &pc.BudgetID, &pc.Index, &payDate, &pc.AmountCents); err != nil {
			return nil, core.StoreErr("scan paycheck", err)
		}
		if pc.PayDate, err = parseDate(payDate); err != nil {
			return nil, core.StoreErr("scan paycheck", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreErr("list paychecks", err)
	}
	return out, nil
}

const entryCols = `id, budget_id, paycheck_id, category_id, planned_cents, sort_order, note, transfer_id`

func scanEntry(row interface{ Scan(...any) error }) (core.BudgetEntry, error) {
	var (
		e        core.BudgetEntry
		note     sql.NullString
		transfer sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.BudgetID, &e.PaycheckID, &e.CategoryID, &e.PlannedCents,
		&e.SortOrder, &note, &transfer)
	if err != nil {
		return core.BudgetEntry{}, err
	}
	e.Note = strPtr(note)
	e.TransferID = i64Ptr(transfer)
	return e, nil
}

func (r *Repository) FindEntry(ctx context.Context, entryID int64) (core.BudgetEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM budget_entries WHERE id = ?`, entryID)
	e, err := scanEntry(row)
	if err != nil {
		return core.BudgetEntry{}, mapErr("find entry", fmt.Sprintf("budget entry %d", entryID), err)
	}
	return e, nil
}

func (r *Repository) ListEntries(ctx context.Context, budgetID int64) ([]core.BudgetEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryCols+` FROM budget_entries WHERE budget_id = ? ORDER BY sort_order, id`, budgetID)
	if err != nil {
		return nil, core.StoreErr("list entries", err)
	}
	defer rows.Close()

	var out []core.BudgetEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, core.StoreErr("scan entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreErr("list entries", err)
	}
	return out, nil
}

func (r *Repository) CreateBudgetWithEntries(ctx context.Context, in core.CreateBudgetInput) (core.Budget, []core.Paycheck, []core.BudgetEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, nil, nil, core.StoreErr("begin create budget", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE user_id = ? AND label = ?`, in.UserID, in.Label).Scan(&count)
	if err != nil {
		return core.Budget{}, nil, nil, core.StoreErr("check budget label", err)
	}
	if count > 0 {
		return core.Budget{}, nil, nil, core.Conflictf("budget label %q already exists for user %d", in.Label, in.UserID)
	}

	createdAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO budgets (user_id, household_id, name, label, income_cents, cadence, pay_period_index, start_date, end_date, cycle_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?)`,
		in.UserID, nullI64(in.HouseholdID), in.Name, in.Label, in.IncomeCents,
		string(in.Cadence), in.PayPeriodIndex, dateStr(in.StartDate), dateStr(in.EndDate),
		createdAt.Format(time.RFC3339))
	if err != nil {
		return core.Budget{}, nil, nil, mapErr("insert budget", "", err)
	}
	budgetID, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, nil, nil, core.StoreErr("insert budget", err)
	}

	budget := core.Budget{
		ID:             budgetID,
		UserID:         in.UserID,
		HouseholdID:    in.HouseholdID,
		Name:           in.Name,
		Label:          in.Label,
		IncomeCents:    in.IncomeCents,
		Cadence:        in.Cadence,
		PayPeriodIndex: in.PayPeriodIndex,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		CreatedAt:      createdAt,
	}

	byIndex := make(map[int]int64, len(in.Paychecks))
	paychecks := make([]core.Paycheck, 0, len(in.Paychecks))
	for _, pc := range in.Paychecks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO paychecks (budget_id, pay_index, pay_date, amount_cents) VALUES (?, ?, ?, ?)`,
			budgetID, pc.Index, dateStr(pc.PayDate), pc.AmountCents)
		if err != nil {
			return core.Budget{}, nil, nil, mapErr("insert paycheck", "", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Budget{}, nil, nil, core.StoreErr("insert paycheck", err)
		}
		byIndex[pc.Index] = id
		paychecks = append(paychecks, core.Paycheck{
			ID: id, BudgetID: budgetID, Index: pc.Index,
			PayDate: pc.PayDate, AmountCents: pc.AmountCents,
		})
	}

	entries := make([]core.BudgetEntry, 0, len(in.Entries))
	for i, e := range in.Entries {
		paycheckID, ok := byIndex[e.PaycheckIndex]
		if !ok {
			return core.Budget{}, nil, nil, core.Validationf("entry %d: unknown paycheck index %d", i, e.PaycheckIndex)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO budget_entries (budget_id, paycheck_id, category_id, planned_cents, sort_order, note, transfer_id)
			 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
			budgetID, paycheckID, e.CategoryID, e.PlannedCents, i, nullStr(e.Note))
		if err != nil {
			return core.Budget{}, nil, nil, mapErr("insert entry", "", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Budget{}, nil, nil, core.StoreErr("insert entry", err)
		}
		entries = append(entries, core.BudgetEntry{
			ID: id, BudgetID: budgetID, PaycheckID: paycheckID,
			CategoryID: e.CategoryID, PlannedCents: e.PlannedCents,
			SortOrder: i, Note: e.Note,
		})
	}

	if err := tx.Commit(); err != nil {
		return core.Budget{}, nil, nil, core.StoreErr("commit create budget", err)
	}
	return budget, paychecks, entries, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, id int64, patch core.BudgetPatch) (core.Budget, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, core.StoreErr("begin update budget", err)
	}
	defer tx.Rollback()

	b, err := applyBudgetPatchTx(ctx, tx, id, patch)
	if err != nil {
		return core.Budget{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, core.StoreErr("commit update budget", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudgetWithEntries(ctx context.Context, id int64, patch core.BudgetPatch, patches []core.EntryPatch) (core.Budget, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, core.StoreErr("begin update budget with entries", err)
	}
	defer tx.Rollback()

	for _, p := range patches {
		if err := applyEntryPatchTx(ctx, tx, id, p); err != nil {
			return core.Budget{}, err
		}
	}
	b, err := applyBudgetPatchTx(ctx, tx, id, patch)
	if err != nil {
		return core.Budget{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, core.StoreErr("commit update budget with entries", err)
	}
	return b, nil
}

func applyBudgetPatchTx(ctx context.Context, tx *sql.Tx, id int64, patch core.BudgetPatch) (core.Budget, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, mapErr("update budget", fmt.Sprintf("budget %d", id), err)
	}

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
		b.CycleID = patch.CycleID
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE budgets SET label = ?, start_date = ?, end_date = ?, cadence = ?, pay_period_index = ?, cycle_id = ? WHERE id = ?`,
		b.Label, dateStr(b.StartDate), dateStr(b.EndDate), string(b.Cadence), b.PayPeriodIndex, nullI64(b.CycleID), id)
	if err != nil {
		return core.Budget{}, mapErr("update budget", "", err)
	}
	return b, nil
}

func (r *Repository) UpdateEntries(ctx context.Context, budgetID int64, patches []core.EntryPatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreErr("begin update entries", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE id = ?`, budgetID).Scan(&exists); err != nil {
		return core.StoreErr("check budget", err)
	}
	if exists == 0 {
		return core.NotFoundf("budget %d not found", budgetID)
	}

	for _, p := range patches {
		if err := applyEntryPatchTx(ctx, tx, budgetID, p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return core.StoreErr("commit update entries", err)
	}
	return nil
}

func applyEntryPatchTx(ctx context.Context, tx *sql.Tx, budgetID int64, p core.EntryPatch) error {
	row := tx.QueryRowContext(ctx, `SELECT `+entryCols+` FROM budget_entries WHERE id = ?`, p.EntryID)
	e, err := scanEntry(row)
	if err != nil || e.BudgetID != budgetID {
		return core.Validationf("entry %d does not belong to budget %d", p.EntryID, budgetID)
	}

	if p.PlannedCents != nil {
		e.PlannedCents = *p.PlannedCents
	}
	if p.ClearNote {
		e.Note = nil
	} else if p.Note != nil {
		e.Note = p.Note
	}
	if p.SortOrder != nil {
		e.SortOrder = *p.SortOrder
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE budget_entries SET planned_cents = ?, sort_order = ?, note = ? WHERE id = ?`,
		e.PlannedCents, e.SortOrder, nullStr(e.Note), p.EntryID)
	if err != nil {
		return mapErr("update entry", "", err)
	}
	return nil
}

func (r *Repository) InsertEntry(ctx context.Context, entry core.BudgetEntry) (core.BudgetEntry, error) {
	var paycheckBudget int64
	err := r.db.QueryRowContext(ctx,
		`SELECT budget_id FROM paychecks WHERE id = ?`, entry.PaycheckID).Scan(&paycheckBudget)
	if err != nil {
		return core.BudgetEntry{}, mapErr("insert entry", fmt.Sprintf("paycheck %d", entry.PaycheckID), err)
	}
	if paycheckBudget != entry.BudgetID {
		return core.BudgetEntry{}, core.Validationf("paycheck %d does not belong to budget %d", entry.PaycheckID, entry.BudgetID)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budget_entries (budget_id, paycheck_id, category_id, planned_cents, sort_order, note, transfer_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.BudgetID, entry.PaycheckID, entry.CategoryID, entry.PlannedCents,
		entry.SortOrder, nullStr(entry.Note), nullI64(entry.TransferID))
	if err != nil {
		return core.BudgetEntry{}, mapErr("insert entry", "", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BudgetEntry{}, core.StoreErr("insert entry", err)
	}
	entry.ID = id
	return entry, nil
}

func (r *Repository) UpdateEntry(ctx context.Context, patch core.EntryPatch) (core.BudgetEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BudgetEntry{}, core.StoreErr("begin update entry", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+entryCols+` FROM budget_entries WHERE id = ?`, patch.EntryID)
	e, err := scanEntry(row)
	if err != nil {
		return core.BudgetEntry{}, mapErr("update entry", fmt.Sprintf("budget entry %d", patch.EntryID), err)
	}

	if patch.PlannedCents != nil {
		e.PlannedCents = *patch.PlannedCents
	}
	if patch.ClearNote {
		e.Note = nil
	} else if patch.Note != nil {
		e.Note = patch.Note
	}
	if patch.SortOrder != nil {
		e.SortOrder = *patch.SortOrder
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE budget_entries SET planned_cents = ?, sort_order = ?, note = ? WHERE id = ?`,
		e.PlannedCents, e.SortOrder, nullStr(e.Note), patch.EntryID)
	if err != nil {
		return core.BudgetEntry{}, mapErr("update entry", "", err)
	}
	if err := tx.Commit(); err != nil {
		return core.BudgetEntry{}, core.StoreErr("commit update entry", err)
	}
	return e, nil
}

func (r *Repository) ReorderEntries(ctx context.Context, budgetID int64, orderedIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreErr("begin reorder entries", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM budgets WHERE id = ?`, budgetID).Scan(&exists); err != nil {
		return core.StoreErr("check budget", err)
	}
	if exists == 0 {
		return core.NotFoundf("budget %d not found", budgetID)
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM budget_entries WHERE budget_id = ?`, budgetID)
	if err != nil {
		return core.StoreErr("list entry ids", err)
	}
	current := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return core.StoreErr("scan entry id", err)
		}
		current[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return core.StoreErr("list entry ids", err)
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
		if _, err := tx.ExecContext(ctx,
			`UPDATE budget_entries SET sort_order = ? WHERE id = ?`, pos, id); err != nil {
			return mapErr("reorder entries", "", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return core.StoreErr("commit reorder entries", err)
	}
	return nil
}

func (r *Repository) DeleteEntry(ctx context.Context, entryID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreErr("begin delete entry", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET entry_id = NULL WHERE entry_id = ?`, entryID); err != nil {
		return mapErr("unlink transactions", "", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM budget_entries WHERE id = ?`, entryID)
	if err != nil {
		return mapErr("delete entry", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreErr("delete entry", err)
	}
	if n == 0 {
		return core.NotFoundf("budget entry %d not found", entryID)
	}
	if err := tx.Commit(); err != nil {
		return core.StoreErr("commit delete entry", err)
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreErr("begin delete budget", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE transactions SET entry_id = NULL
		 WHERE entry_id IN (SELECT id FROM budget_entries WHERE budget_id = ?)`, id); err != nil {
		return mapErr("unlink transactions", "", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_entries WHERE budget_id = ?`, id); err != nil {
		return mapErr("delete entries", "", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM paychecks WHERE budget_id = ?`, id); err != nil {
		return mapErr("delete paychecks", "", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete budget", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreErr("delete budget", err)
	}
	if n == 0 {
		return core.NotFoundf("budget %d not found", id)
	}
	if err := tx.Commit(); err != nil {
		return core.StoreErr("commit delete budget", err)
	}
	return nil
}
