package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"busta/internal/core"
	"busta/internal/services"
	"busta/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := memory.New()
	budgets := services.NewBudgetService(st, nil)
	transactions := services.NewTransactionService(st, nil)
	cycles := services.NewCycleService(st, nil)
	return NewServer(":0", budgets, transactions, cycles, nil)
}

func doJSON(t *testing.T, srv *Server, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func validBudgetBody() map[string]any {
	return map[string]any{
		"name":             "September",
		"label":            "2026-09",
		"income_cents":     200000,
		"cadence":          "biweekly",
		"pay_period_index": 1,
		"start_date":       "2026-09-01",
		"end_date":         "2026-09-30",
		"paychecks": []map[string]any{
			{"index": 1, "pay_date": "2026-09-05", "amount_cents": 100000},
			{"index": 2, "pay_date": "2026-09-19", "amount_cents": 100000},
		},
		"entries": []map[string]any{
			{"category_id": 10, "paycheck_index": 1, "planned_cents": 80000},
			{"category_id": 11, "paycheck_index": 2, "planned_cents": 20000},
		},
	}
}

func createBudget(t *testing.T, srv *Server, userID int64) core.BudgetWithEntries {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/budgets", userID, validBudgetBody())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	var created core.BudgetWithEntries
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created budget: %v", err)
	}
	return created
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, 0, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestMissingUserHeaderUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/budgets", 0, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", rr.Code)
	}
}

func TestCreateAndGetBudget(t *testing.T) {
	srv := newTestServer(t)
	created := createBudget(t, srv, 1)

	rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/budgets/%d", created.Budget.ID), 1, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got core.BudgetWithEntries
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if got.Budget.Label != "2026-09" || len(got.Entries) != 2 {
		t.Errorf("got label %q with %d entries, want 2026-09 with 2", got.Budget.Label, len(got.Entries))
	}
}

func TestStatusMapping(t *testing.T) {
	srv := newTestServer(t)
	created := createBudget(t, srv, 1)

	t.Run("validation maps to 422", func(t *testing.T) {
		body := validBudgetBody()
		body["label"] = "2026-10"
		body["entries"] = []map[string]any{}
		rr := doJSON(t, srv, http.MethodPost, "/budgets", 1, body)
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("duplicate label maps to 409", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodPost, "/budgets", 1, validBudgetBody())
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("missing budget maps to 404", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodGet, "/budgets/99999", 1, nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("foreign budget maps to 403", func(t *testing.T) {
		rr := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/budgets/%d", created.Budget.ID), 7, nil)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
		}
	})

	t.Run("malformed JSON maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/budgets", strings.NewReader("{not json"))
		req.Header.Set("X-User-ID", "1")
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})
}

func TestBudgetSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	created := createBudget(t, srv, 1)

	rr := doJSON(t, srv, http.MethodPost, "/transactions", 1, map[string]any{
		"account_id":   1,
		"entry_id":     created.Entries[0].Entry.ID,
		"amount_cents": -85000,
		"kind":         "expense",
		"status":       "paid",
		"type":         "occurred",
		"date":         "2026-09-10",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/budgets/%d/summary", created.Budget.ID), 1, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary status=%d body=%s", rr.Code, rr.Body.String())
	}
	var summary core.BudgetSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalPlannedCents != 100000 || summary.TotalActualCents != 85000 || summary.RemainingCents != 15000 {
		t.Errorf("summary = %d/%d/%d, want 100000/85000/15000",
			summary.TotalPlannedCents, summary.TotalActualCents, summary.RemainingCents)
	}
}

func TestReorderEntriesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	created := createBudget(t, srv, 1)
	first, second := created.Entries[0].Entry.ID, created.Entries[1].Entry.ID

	rr := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/budgets/%d/entries/reorder", created.Budget.ID), 1,
		map[string]any{"ordered_entry_ids": []int64{second, first}})
	if rr.Code != http.StatusOK {
		t.Fatalf("reorder status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Entries []core.BudgetEntry `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode reorder response: %v", err)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].ID != second {
		t.Errorf("reorder did not move entry %d to the front", second)
	}

	// An incomplete id set must be rejected.
	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/budgets/%d/entries/reorder", created.Budget.ID), 1,
		map[string]any{"ordered_entry_ids": []int64{first}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("partial reorder expected 422, got %d", rr.Code)
	}
}

func TestAssignTransactionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	created := createBudget(t, srv, 1)

	rr := doJSON(t, srv, http.MethodPost, "/transactions", 1, map[string]any{
		"account_id":   1,
		"amount_cents": -4200,
		"kind":         "expense",
		"status":       "paid",
		"type":         "occurred",
		"date":         "2026-09-12",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status=%d body=%s", rr.Code, rr.Body.String())
	}
	var txn core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &txn); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/transactions/%d/assign", txn.ID), 1,
		map[string]any{"entry_id": created.Entries[0].Entry.ID})
	if rr.Code != http.StatusOK {
		t.Fatalf("assign status=%d body=%s", rr.Code, rr.Body.String())
	}
	var assigned core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &assigned); err != nil {
		t.Fatalf("decode assigned transaction: %v", err)
	}
	if assigned.EntryID == nil || *assigned.EntryID != created.Entries[0].Entry.ID {
		t.Error("assign did not link the transaction to the entry")
	}

	// Detach by assigning a null entry id.
	rr = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/transactions/%d/assign", txn.ID), 1,
		map[string]any{"entry_id": nil})
	if rr.Code != http.StatusOK {
		t.Fatalf("detach status=%d body=%s", rr.Code, rr.Body.String())
	}
	// Detachment must be visible on the wire, not just absent.
	if !strings.Contains(rr.Body.String(), `"entry_id":null`) {
		t.Fatalf("detached response does not carry a null entry_id: %s", rr.Body.String())
	}
	var detached core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &detached); err != nil {
		t.Fatalf("decode detached transaction: %v", err)
	}
	if detached.EntryID != nil {
		t.Error("detach left the transaction linked")
	}
}

func TestCreateTransactionDecimalAmount(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/transactions", 1, map[string]any{
		"account_id":   1,
		"amount_cents": "-42,50",
		"kind":         "expense",
		"status":       "paid",
		"type":         "occurred",
		"date":         "2026-09-12",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status=%d body=%s", rr.Code, rr.Body.String())
	}
	var txn core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &txn); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	if txn.AmountCents != -4250 {
		t.Errorf("amount = %d, want -4250", txn.AmountCents)
	}

	rr = doJSON(t, srv, http.MethodPost, "/transactions", 1, map[string]any{
		"account_id":   1,
		"amount_cents": "not-a-number",
		"kind":         "expense",
		"status":       "paid",
		"type":         "occurred",
		"date":         "2026-09-12",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed amount expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestDailyTotalsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	for _, e := range []map[string]any{
		{"date": "2026-09-03", "amount_cents": 1200, "title": "coffee", "status": "paid", "type": "occurred"},
		{"date": "2026-09-03", "amount_cents": 800, "title": "bus", "status": "paid", "type": "occurred"},
		{"date": "2026-09-05", "amount_cents": 4500, "title": "groceries", "status": "paid", "type": "occurred"},
	} {
		rr := doJSON(t, srv, http.MethodPost, "/daily-expenses", 1, e)
		if rr.Code != http.StatusCreated {
			t.Fatalf("create daily expense status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/daily-totals?start=2026-09-01&end=2026-09-30", 1, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("daily totals status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Days  []core.DailyTotal `json:"days"`
		Count int               `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode daily totals: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("got %d days, want 2", resp.Count)
	}
	if resp.Days[0].SpentCents != 2000 || resp.Days[1].SpentCents != 4500 {
		t.Errorf("day totals = %d, %d; want 2000, 4500", resp.Days[0].SpentCents, resp.Days[1].SpentCents)
	}

	rr = doJSON(t, srv, http.MethodGet, "/daily-totals?start=bad&end=2026-09-30", 1, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad start date expected 400, got %d", rr.Code)
	}
}

func TestDeleteBudgetEndpoint(t *testing.T) {
	srv := newTestServer(t)
	created := createBudget(t, srv, 1)

	rr := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/budgets/%d", created.Budget.ID), 1, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/budgets/%d", created.Budget.ID), 1, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}
