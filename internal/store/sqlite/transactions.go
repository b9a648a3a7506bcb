package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"busta/internal/core"
)

const txnCols = `id, user_id, account_id, category_id, household_id, entry_id, amount_cents, kind, status, type, tx_date, note`

func scanTxn(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t         core.Transaction
		category  sql.NullInt64
		household sql.NullInt64
		entry     sql.NullInt64
		note      sql.NullString
		date      string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &category, &household, &entry,
		&t.AmountCents, &t.Kind, &t.Status, &t.Type, &date, &note)
	if err != nil {
		return core.Transaction{}, err
	}
	t.CategoryID = i64Ptr(category)
	t.HouseholdID = i64Ptr(household)
	t.EntryID = i64Ptr(entry)
	t.Note = strPtr(note)
	if t.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (r *Repository) FindTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txnCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTxn(row)
	if err != nil {
		return core.Transaction{}, mapErr("find transaction", fmt.Sprintf("transaction %d", id), err)
	}
	return t, nil
}

func (r *Repository) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.listTxns(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE user_id = ? ORDER BY tx_date, id`, userID)
}

func (r *Repository) ListTransactionsByEntry(ctx context.Context, entryID int64) ([]core.Transaction, error) {
	return r.listTxns(ctx,
		`SELECT `+txnCols+` FROM transactions WHERE entry_id = ? ORDER BY tx_date, id`, entryID)
}

func (r *Repository) ListTransactionsForBudget(ctx context.Context, budgetID int64) ([]core.Transaction, error) {
	return r.listTxns(ctx,
		`SELECT `+txnCols+` FROM transactions
		 WHERE entry_id IN (SELECT id FROM budget_entries WHERE budget_id = ?)
		 ORDER BY tx_date, id`, budgetID)
}

func (r *Repository) ListTransactionsByDateRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	return r.listTxns(ctx,
		`SELECT `+txnCols+` FROM transactions
		 WHERE user_id = ? AND tx_date >= ? AND tx_date <= ?
		 ORDER BY tx_date, id`, userID, dateStr(start), dateStr(end))
}

func (r *Repository) listTxns(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.StoreErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTxn(rows)
		if err != nil {
			return nil, core.StoreErr("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.StoreErr("list transactions", err)
	}
	return out, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.EntryID != nil {
		if _, err := r.FindEntry(ctx, *t.EntryID); err != nil {
			return core.Transaction{}, err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, account_id, category_id, household_id, entry_id, amount_cents, kind, status, type, tx_date, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AccountID, nullI64(t.CategoryID), nullI64(t.HouseholdID), nullI64(t.EntryID),
		t.AmountCents, string(t.Kind), string(t.Status), string(t.Type), dateStr(t.Date), nullStr(t.Note))
	if err != nil {
		return core.Transaction{}, mapErr("insert transaction", "", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, core.StoreErr("insert transaction", err)
	}
	t.ID = id
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, core.StoreErr("begin update transaction", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+txnCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTxn(row)
	if err != nil {
		return core.Transaction{}, mapErr("update transaction", fmt.Sprintf("transaction %d", id), err)
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
		t.CategoryID = patch.CategoryID
	}
	if patch.Note != nil {
		t.Note = patch.Note
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE transactions SET amount_cents = ?, kind = ?, status = ?, type = ?, tx_date = ?, category_id = ?, note = ? WHERE id = ?`,
		t.AmountCents, string(t.Kind), string(t.Status), string(t.Type), dateStr(t.Date),
		nullI64(t.CategoryID), nullStr(t.Note), id)
	if err != nil {
		return core.Transaction{}, mapErr("update transaction", "", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, core.StoreErr("commit update transaction", err)
	}
	return t, nil
}

func (r *Repository) AssignTransaction(ctx context.Context, id int64, entryID *int64) (core.Transaction, error) {
	if entryID != nil {
		if _, err := r.FindEntry(ctx, *entryID); err != nil {
			return core.Transaction{}, err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET entry_id = ? WHERE id = ?`, nullI64(entryID), id)
	if err != nil {
		return core.Transaction{}, mapErr("assign transaction", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, core.StoreErr("assign transaction", err)
	}
	if n == 0 {
		return core.Transaction{}, core.NotFoundf("transaction %d not found", id)
	}
	return r.FindTransaction(ctx, id)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete transaction", "", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.StoreErr("delete transaction", err)
	}
	if n == 0 {
		return core.NotFoundf("transaction %d not found", id)
	}
	return nil
}
