package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"busta/internal/core"
)

const cycleCols = `id, user_id, household_id, label, start_date, end_date, total_budget_cents, goal`

func scanCycle(row interface{ Scan(...any) error }) (core.TwelveWeekCycle, error) {
	var (
		c          core.TwelveWeekCycle
		household  sql.NullInt64
		goal       sql.NullString
		start, end string
	)
	err := row.Scan(&c.ID, &c.UserID, &household, &c.Label, &start, &end, &c.TotalBudgetCents, &goal)
	if err != nil {
		return core.TwelveWeekCycle{}, err
	}
	c.HouseholdID = i64Ptr(household)
	c.Goal = strPtr(goal)
	if c.StartDate, err = parseDate(start); err != nil {
		return core.TwelveWeekCycle{}, err
	}
	if c.EndDate, err = parseDate(end); err != nil {
		return core.TwelveWeekCycle{}, err
	}
	return c, nil
}

func (r *Repository) FindCycle(ctx context.Context, id int64) (core.TwelveWeekCycle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cycleCols+` FROM cycles WHERE id = ?`, id)
	c, err := scanCycle(row)
	if err != nil {
		return core.TwelveWeekCycle{}, mapErr("find cycle", fmt.Sprintf("cycle %d", id), err)
	}
	return c, nil
}

func (r *Repository) ListCyclesByUser(ctx context.Context, userID int64) ([]core.TwelveWeekCycle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cycleCols+` FROM cycles WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, core.StoreErr("list cycles", err)
	}
	defer rows.Close()

	var out []core.TwelveWeekCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, core.StoreErr("scan cycle", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreErr("list cycles", err)
	}
	return out, nil
}

func (r *Repository) CreateCycle(ctx context.Context, c core.TwelveWeekCycle) (core.TwelveWeekCycle, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles (user_id, household_id, label, start_date, end_date, total_budget_cents, goal)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, nullI64(c.HouseholdID), c.Label, dateStr(c.StartDate), dateStr(c.EndDate),
		c.TotalBudgetCents, nullStr(c.Goal))
	if err != nil {
		return core.TwelveWeekCycle{}, mapErr("insert cycle", "", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.TwelveWeekCycle{}, core.StoreErr("insert cycle", err)
	}
	c.ID = id
	return c, nil
}

func (r *Repository) UpdateCycle(ctx context.Context, id int64, c core.TwelveWeekCycle) (core.TwelveWeekCycle, error) {
	prev, err := r.FindCycle(ctx, id)
	if err != nil {
		return core.TwelveWeekCycle{}, err
	}
	c.ID = prev.ID
	c.UserID = prev.UserID

	_, err = r.db.ExecContext(ctx,
		`UPDATE cycles SET household_id = ?, label = ?, start_date = ?, end_date = ?, total_budget_cents = ?, goal = ? WHERE id = ?`,
		nullI64(c.HouseholdID), c.Label, dateStr(c.StartDate), dateStr(c.EndDate),
		c.TotalBudgetCents, nullStr(c.Goal), id)
	if err != nil {
		return core.TwelveWeekCycle{}, mapErr("update cycle", "", err)
	}
	return c, nil
}

func (r *Repository) DeleteCycle(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.StoreErr("begin delete cycle", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_expenses WHERE cycle_id = ?`, id); err != nil {
		return mapErr("delete daily expenses", "", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cycles WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete cycle", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreErr("delete cycle", err)
	}
	if n == 0 {
		return core.NotFoundf("cycle %d not found", id)
	}
	if err := tx.Commit(); err != nil {
		return core.StoreErr("commit delete cycle", err)
	}
	return nil
}

const dailyCols = `id, user_id, cycle_id, category_id, expense_date, amount_cents, title, status, type`

func scanDaily(row interface{ Scan(...any) error }) (core.DailyExpense, error) {
	var (
		e        core.DailyExpense
		cycle    sql.NullInt64
		category sql.NullInt64
		date     string
	)
	err := row.Scan(&e.ID, &e.UserID, &cycle, &category, &date, &e.AmountCents, &e.Title, &e.Status, &e.Type)
	if err != nil {
		return core.DailyExpense{}, err
	}
	e.CycleID = i64Ptr(cycle)
	e.CategoryID = i64Ptr(category)
	if e.Date, err = parseDate(date); err != nil {
		return core.DailyExpense{}, err
	}
	return e, nil
}

func (r *Repository) FindDailyExpense(ctx context.Context, id int64) (core.DailyExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dailyCols+` FROM daily_expenses WHERE id = ?`, id)
	e, err := scanDaily(row)
	if err != nil {
		return core.DailyExpense{}, mapErr("find daily expense", fmt.Sprintf("daily expense %d", id), err)
	}
	return e, nil
}

func (r *Repository) ListDailyExpensesByCycle(ctx context.Context, cycleID int64) ([]core.DailyExpense, error) {
	return r.listDaily(ctx,
		`SELECT `+dailyCols+` FROM daily_expenses WHERE cycle_id = ? ORDER BY expense_date, id`, cycleID)
}

func (r *Repository) ListDailyExpensesByUserRange(ctx context.Context, userID int64, start, end core.Date) ([]core.DailyExpense, error) {
	return r.listDaily(ctx,
		`SELECT `+dailyCols+` FROM daily_expenses
		 WHERE user_id = ? AND expense_date >= ? AND expense_date <= ?
		 ORDER BY expense_date, id`, userID, dateStr(start), dateStr(end))
}

func (r *Repository) listDaily(ctx context.Context, query string, args ...any) ([]core.DailyExpense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.StoreErr("list daily expenses", err)
	}
	defer rows.Close()

	var out []core.DailyExpense
	for rows.Next() {
		e, err := scanDaily(rows)
		if err != nil {
			return nil, core.StoreErr("scan daily expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreErr("list daily expenses", err)
	}
	return out, nil
}

func (r *Repository) CreateDailyExpense(ctx context.Context, e core.DailyExpense) (core.DailyExpense, error) {
	if e.CycleID != nil {
		if _, err := r.FindCycle(ctx, *e.CycleID); err != nil {
			return core.DailyExpense{}, err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_expenses (user_id, cycle_id, category_id, expense_date, amount_cents, title, status, type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, nullI64(e.CycleID), nullI64(e.CategoryID), dateStr(e.Date),
		e.AmountCents, e.Title, string(e.Status), string(e.Type))
	if err != nil {
		return core.DailyExpense{}, mapErr("insert daily expense", "", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.DailyExpense{}, core.StoreErr("insert daily expense", err)
	}
	e.ID = id
	return e, nil
}

func (r *Repository) UpdateDailyExpense(ctx context.Context, id int64, e core.DailyExpense) (core.DailyExpense, error) {
	prev, err := r.FindDailyExpense(ctx, id)
	if err != nil {
		return core.DailyExpense{}, err
	}
	e.ID = prev.ID
	e.UserID = prev.UserID

	_, err = r.db.ExecContext(ctx,
		`UPDATE daily_expenses SET cycle_id = ?, category_id = ?, expense_date = ?, amount_cents = ?, title = ?, status = ?, type = ? WHERE id = ?`,
		nullI64(e.CycleID), nullI64(e.CategoryID), dateStr(e.Date), e.AmountCents,
		e.Title, string(e.Status), string(e.Type), id)
	if err != nil {
		return core.DailyExpense{}, mapErr("update daily expense", "", err)
	}
	return e, nil
}

func (r *Repository) DeleteDailyExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_expenses WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete daily expense", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreErr("delete daily expense", err)
	}
	if n == 0 {
		return core.NotFoundf("daily expense %d not found", id)
	}
	return nil
}
