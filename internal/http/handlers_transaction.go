package http

import (
	"net/http"

	"busta/internal/core"
)

type createTransactionRequest struct {
	AccountID   int64       `json:"account_id"`
	CategoryID  *int64      `json:"category_id"`
	EntryID     *int64      `json:"entry_id"`
	AmountCents centsAmount `json:"amount_cents"`
	Kind        string      `json:"kind"`
	Status      string      `json:"status"`
	Type        string      `json:"type"`
	Date        core.Date   `json:"date"`
	Note        *string     `json:"note"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := s.transactions.CreateTransaction(r.Context(), core.CreateTransactionInput{
		UserID:      caller.UserID,
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		HouseholdID: caller.HouseholdID,
		EntryID:     req.EntryID,
		AmountCents: int64(req.AmountCents),
		Kind:        core.TransactionKind(req.Kind),
		Status:      core.ExpenseStatus(req.Status),
		Type:        core.ExpenseType(req.Type),
		Date:        req.Date,
		Note:        req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// With start and end query params the listing narrows to a date range.
	var txns []core.Transaction
	if r.URL.Query().Has("start") || r.URL.Query().Has("end") {
		start, end, err := queryDateRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		txns, err = s.transactions.ListTransactionsByDateRange(r.Context(), caller.UserID, start, end)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	} else {
		txns, err = s.transactions.ListTransactions(r.Context(), caller.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txns, "count": len(txns)})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := s.transactions.GetTransaction(r.Context(), id, caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

type transactionPatchRequest struct {
	AmountCents *centsAmount `json:"amount_cents"`
	Kind        *string      `json:"kind"`
	Status      *string      `json:"status"`
	Type        *string      `json:"type"`
	Date        *core.Date   `json:"date"`
	CategoryID  *int64       `json:"category_id"`
	Note        *string      `json:"note"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := core.TransactionPatch{
		Date:       req.Date,
		CategoryID: req.CategoryID,
		Note:       req.Note,
	}
	if req.AmountCents != nil {
		amount := int64(*req.AmountCents)
		patch.AmountCents = &amount
	}
	if req.Kind != nil {
		kind := core.TransactionKind(*req.Kind)
		patch.Kind = &kind
	}
	if req.Status != nil {
		status := core.ExpenseStatus(*req.Status)
		patch.Status = &status
	}
	if req.Type != nil {
		typ := core.ExpenseType(*req.Type)
		patch.Type = &typ
	}

	txn, err := s.transactions.UpdateTransaction(r.Context(), id, caller.UserID, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

type assignTransactionRequest struct {
	BudgetID *int64 `json:"budget_id"`
	EntryID  *int64 `json:"entry_id"`
}

func (s *Server) handleAssignTransaction(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req assignTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := s.transactions.Assign(r.Context(), core.AssignTransactionInput{
		TransactionID: id,
		BudgetID:      req.BudgetID,
		EntryID:       req.EntryID,
		UserID:        caller.UserID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), id, caller.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
