package http

import (
	"net/http"

	"busta/internal/core"
)

type paycheckRequest struct {
	Index       int       `json:"index"`
	PayDate     core.Date `json:"pay_date"`
	AmountCents int64     `json:"amount_cents"`
}

type newEntryRequest struct {
	CategoryID    int64   `json:"category_id"`
	PaycheckIndex int     `json:"paycheck_index"`
	PlannedCents  int64   `json:"planned_cents"`
	Note          *string `json:"note"`
}

type createBudgetRequest struct {
	Name           string            `json:"name"`
	Label          string            `json:"label"`
	IncomeCents    int64             `json:"income_cents"`
	Cadence        string            `json:"cadence"`
	PayPeriodIndex int               `json:"pay_period_index"`
	StartDate      core.Date         `json:"start_date"`
	EndDate        core.Date         `json:"end_date"`
	Paychecks      []paycheckRequest `json:"paychecks"`
	Entries        []newEntryRequest `json:"entries"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := core.CreateBudgetInput{
		UserID:         caller.UserID,
		HouseholdID:    caller.HouseholdID,
		Name:           req.Name,
		Label:          req.Label,
		IncomeCents:    req.IncomeCents,
		Cadence:        core.PayCadence(req.Cadence),
		PayPeriodIndex: req.PayPeriodIndex,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}
	for _, pc := range req.Paychecks {
		in.Paychecks = append(in.Paychecks, core.PaycheckInput{
			Index:       pc.Index,
			PayDate:     pc.PayDate,
			AmountCents: pc.AmountCents,
		})
	}
	for _, e := range req.Entries {
		in.Entries = append(in.Entries, core.NewEntryInput{
			CategoryID:    e.CategoryID,
			PaycheckIndex: e.PaycheckIndex,
			PlannedCents:  e.PlannedCents,
			Note:          e.Note,
		})
	}

	created, err := s.budgets.CreateBudget(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// ?scope=household lists the shared budgets instead of the caller's own.
	var budgets []core.Budget
	if r.URL.Query().Get("scope") == "household" {
		if caller.HouseholdID == nil {
			writeError(w, http.StatusBadRequest, "household scope requires the X-Household-ID header")
			return
		}
		budgets, err = s.budgets.ListHouseholdBudgets(r.Context(), *caller.HouseholdID)
	} else {
		budgets, err = s.budgets.ListBudgets(r.Context(), caller.UserID)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets, "count": len(budgets)})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := s.budgets.GetBudget(r.Context(), budgetID, caller.UserID, caller.HouseholdID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleGetBudgetSummary(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.budgets.GetBudgetSummary(r.Context(), budgetID, caller.UserID, caller.HouseholdID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type budgetPatchRequest struct {
	Label          *string    `json:"label"`
	StartDate      *core.Date `json:"start_date"`
	EndDate        *core.Date `json:"end_date"`
	Cadence        *string    `json:"cadence"`
	PayPeriodIndex *int       `json:"pay_period_index"`
	CycleID        *int64     `json:"cycle_id"`
	DetachCycle    bool       `json:"detach_cycle"`
}

func (p budgetPatchRequest) toPatch() core.BudgetPatch {
	patch := core.BudgetPatch{
		Label:          p.Label,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		PayPeriodIndex: p.PayPeriodIndex,
		CycleID:        p.CycleID,
		DetachCycle:    p.DetachCycle,
	}
	if p.Cadence != nil {
		cadence := core.PayCadence(*p.Cadence)
		patch.Cadence = &cadence
	}
	return patch
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req budgetPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.budgets.UpdateBudget(r.Context(), budgetID, caller.UserID, caller.HouseholdID, req.toPatch())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type entryPatchRequest struct {
	EntryID      int64   `json:"entry_id"`
	PlannedCents *int64  `json:"planned_cents"`
	Note         *string `json:"note"`
	ClearNote    bool    `json:"clear_note"`
	SortOrder    *int    `json:"sort_order"`
}

type updateBudgetWithEntriesRequest struct {
	Budget  budgetPatchRequest  `json:"budget"`
	Entries []entryPatchRequest `json:"entries"`
}

func (s *Server) handleUpdateBudgetWithEntries(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req updateBudgetWithEntriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := core.UpdateBudgetWithEntriesInput{Budget: req.Budget.toPatch()}
	for _, e := range req.Entries {
		in.Entries = append(in.Entries, core.EntryPatch{
			EntryID:      e.EntryID,
			PlannedCents: e.PlannedCents,
			Note:         e.Note,
			ClearNote:    e.ClearNote,
			SortOrder:    e.SortOrder,
		})
	}

	updated, err := s.budgets.UpdateBudgetWithEntries(r.Context(), budgetID, caller.UserID, caller.HouseholdID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.budgets.DeleteBudget(r.Context(), budgetID, caller.UserID, caller.HouseholdID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type upsertEntryRequest struct {
	EntryID      *int64  `json:"entry_id"`
	CategoryID   int64   `json:"category_id"`
	PaycheckID   int64   `json:"paycheck_id"`
	PlannedCents int64   `json:"planned_cents"`
	SortOrder    *int    `json:"sort_order"`
	Note         *string `json:"note"`
}

func (s *Server) handleUpsertEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req upsertEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := s.budgets.UpsertEntry(r.Context(), core.UpsertEntryInput{
		BudgetID:     budgetID,
		UserID:       caller.UserID,
		HouseholdID:  caller.HouseholdID,
		EntryID:      req.EntryID,
		CategoryID:   req.CategoryID,
		PaycheckID:   req.PaycheckID,
		PlannedCents: req.PlannedCents,
		SortOrder:    req.SortOrder,
		Note:         req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if req.EntryID == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, entry)
}

type reorderEntriesRequest struct {
	OrderedEntryIDs []int64 `json:"ordered_entry_ids"`
}

func (s *Server) handleReorderEntries(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	budgetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req reorderEntriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.budgets.ReorderEntries(r.Context(), core.ReorderEntriesInput{
		BudgetID:        budgetID,
		UserID:          caller.UserID,
		HouseholdID:     caller.HouseholdID,
		OrderedEntryIDs: req.OrderedEntryIDs,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.budgets.DeleteEntry(r.Context(), entryID, caller.UserID, caller.HouseholdID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
