package http

import (
	"net/http"

	"busta/internal/core"
)

type upsertCycleRequest struct {
	CycleID          *int64    `json:"cycle_id"`
	Label            string    `json:"label"`
	StartDate        core.Date `json:"start_date"`
	EndDate          core.Date `json:"end_date"`
	TotalBudgetCents int64     `json:"total_budget_cents"`
	Goal             *string   `json:"goal"`
}

func (s *Server) handleUpsertCycle(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req upsertCycleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cycle, err := s.cycles.UpsertCycle(r.Context(), core.UpsertCycleInput{
		CycleID:          req.CycleID,
		UserID:           caller.UserID,
		HouseholdID:      caller.HouseholdID,
		Label:            req.Label,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		TotalBudgetCents: req.TotalBudgetCents,
		Goal:             req.Goal,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if req.CycleID == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, cycle)
}

func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	cycles, err := s.cycles.ListCycles(r.Context(), caller.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycles": cycles, "count": len(cycles)})
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
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

	cycle, err := s.cycles.GetCycle(r.Context(), id, caller.UserID, caller.HouseholdID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

func (s *Server) handleGetCycleSummary(w http.ResponseWriter, r *http.Request) {
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

	summary, err := s.cycles.GetCycleSummary(r.Context(), id, caller.UserID, caller.HouseholdID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
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

	if err := s.cycles.DeleteCycle(r.Context(), id, caller.UserID, caller.HouseholdID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type upsertDailyExpenseRequest struct {
	ExpenseID   *int64      `json:"expense_id"`
	CycleID     *int64      `json:"cycle_id"`
	CategoryID  *int64      `json:"category_id"`
	Date        core.Date   `json:"date"`
	AmountCents centsAmount `json:"amount_cents"`
	Title       string      `json:"title"`
	Status      string      `json:"status"`
	Type        string      `json:"type"`
}

func (s *Server) handleUpsertDailyExpense(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req upsertDailyExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.cycles.UpsertDailyExpense(r.Context(), core.UpsertDailyExpenseInput{
		ExpenseID:   req.ExpenseID,
		UserID:      caller.UserID,
		HouseholdID: caller.HouseholdID,
		CycleID:     req.CycleID,
		CategoryID:  req.CategoryID,
		Date:        req.Date,
		AmountCents: int64(req.AmountCents),
		Title:       req.Title,
		Status:      core.ExpenseStatus(req.Status),
		Type:        core.ExpenseType(req.Type),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if req.ExpenseID == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, expense)
}

func (s *Server) handleDeleteDailyExpense(w http.ResponseWriter, r *http.Request) {
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

	if err := s.cycles.DeleteDailyExpense(r.Context(), id, caller.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDailyTotals streams the per-day rollups for a date range. Days
// without expenses are absent rather than zero.
func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	start, end, err := queryDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	totals, err := s.cycles.DailyTotalsForRange(r.Context(), caller.UserID, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	days := []core.DailyTotal{}
	for day := range totals {
		days = append(days, day)
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days, "count": len(days)})
}
