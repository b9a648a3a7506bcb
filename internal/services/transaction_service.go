package services

import (
	"context"
	"fmt"
	"log/slog"

	"busta/internal/amqp"
	"busta/internal/core"
	"busta/internal/store"
)

type TransactionService struct {
	store store.Store
	pub   ChangePublisher
}

func NewTransactionService(st store.Store, pub ChangePublisher) *TransactionService {
	return &TransactionService{store: st, pub: pub}
}

func (s *TransactionService) CreateTransaction(ctx context.Context, in core.CreateTransactionInput) (core.Transaction, error) {
	txn := core.Transaction{
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
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if in.EntryID != nil {
		if err := s.authorizeEntry(ctx, *in.EntryID, in.UserID, in.HouseholdID); err != nil {
			return core.Transaction{}, err
		}
	}

	created, err := s.store.CreateTransaction(ctx, txn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"user_id", created.UserID,
		"amount_cents", created.AmountCents,
		"kind", created.Kind)
	publishChange(ctx, s.pub, amqp.ScopeTransaction, amqp.ActionCreated, created.ID, created.UserID)
	return created, nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error) {
	txn, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if txn.UserID != userID {
		return core.Transaction{}, core.Forbiddenf("user %d may not access transaction %d", userID, id)
	}
	return txn, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, userID)
}

func (s *TransactionService) ListTransactionsByDateRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Transaction, error) {
	if end.Before(start.Time) {
		return nil, core.Validationf("range end %s precedes start %s", end, start)
	}
	return s.store.ListTransactionsByDateRange(ctx, userID, start, end)
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, id, userID int64, patch core.TransactionPatch) (core.Transaction, error) {
	txn, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if txn.UserID != userID {
		return core.Transaction{}, core.Forbiddenf("user %d may not access transaction %d", userID, id)
	}

	// Validate the patched result before writing, so a patch can not push a
	// transaction into a kind/sign mismatch.
	preview := txn
	if patch.AmountCents != nil {
		preview.AmountCents = *patch.AmountCents
	}
	if patch.Kind != nil {
		preview.Kind = *patch.Kind
	}
	if patch.Status != nil {
		preview.Status = *patch.Status
	}
	if patch.Type != nil {
		preview.Type = *patch.Type
	}
	if patch.Date != nil {
		preview.Date = *patch.Date
	}
	if err := preview.Validate(); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", id, "user_id", userID)
	publishChange(ctx, s.pub, amqp.ScopeTransaction, amqp.ActionUpdated, id, userID)
	return updated, nil
}

// Assign links the transaction to a budget entry, replacing any existing
// link. A nil entry id detaches the transaction from its budget.
func (s *TransactionService) Assign(ctx context.Context, in core.AssignTransactionInput) (core.Transaction, error) {
	txn, err := s.store.FindTransaction(ctx, in.TransactionID)
	if err != nil {
		return core.Transaction{}, err
	}
	if txn.UserID != in.UserID {
		return core.Transaction{}, core.Forbiddenf("user %d may not access transaction %d", in.UserID, in.TransactionID)
	}

	if in.EntryID != nil {
		entry, err := s.store.FindEntry(ctx, *in.EntryID)
		if err != nil {
			return core.Transaction{}, err
		}
		if in.BudgetID != nil && entry.BudgetID != *in.BudgetID {
			return core.Transaction{}, core.Validationf("entry %d does not belong to budget %d", *in.EntryID, *in.BudgetID)
		}
		budget, err := s.store.FindBudget(ctx, entry.BudgetID)
		if err != nil {
			return core.Transaction{}, err
		}
		if err := authorizeBudget(budget, in.UserID, txn.HouseholdID); err != nil {
			return core.Transaction{}, err
		}
	}

	assigned, err := s.store.AssignTransaction(ctx, in.TransactionID, in.EntryID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("assign transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction assigned",
		"id", in.TransactionID, "user_id", in.UserID, "detached", in.EntryID == nil)
	publishChange(ctx, s.pub, amqp.ScopeTransaction, amqp.ActionAssigned, in.TransactionID, in.UserID)
	return assigned, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, id, userID int64) error {
	txn, err := s.store.FindTransaction(ctx, id)
	if err != nil {
		return err
	}
	if txn.UserID != userID {
		return core.Forbiddenf("user %d may not access transaction %d", userID, id)
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	publishChange(ctx, s.pub, amqp.ScopeTransaction, amqp.ActionDeleted, id, userID)
	return nil
}

func (s *TransactionService) authorizeEntry(ctx context.Context, entryID, userID int64, householdID *int64) error {
	entry, err := s.store.FindEntry(ctx, entryID)
	if err != nil {
		return err
	}
	budget, err := s.store.FindBudget(ctx, entry.BudgetID)
	if err != nil {
		return err
	}
	return authorizeBudget(budget, userID, householdID)
}
