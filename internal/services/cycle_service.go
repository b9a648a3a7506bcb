package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"busta/internal/amqp"
	"busta/internal/core"
	"busta/internal/store"
)

// CycleService owns twelve-week cycles and their daily expense log.
type CycleService struct {
	store store.Store
	pub   ChangePublisher
}

func NewCycleService(st store.Store, pub ChangePublisher) *CycleService {
	return &CycleService{store: st, pub: pub}
}

func (s *CycleService) UpsertCycle(ctx context.Context, in core.UpsertCycleInput) (core.TwelveWeekCycle, error) {
	cycle := core.TwelveWeekCycle{
		UserID:           in.UserID,
		HouseholdID:      in.HouseholdID,
		Label:            in.Label,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		TotalBudgetCents: in.TotalBudgetCents,
		Goal:             in.Goal,
	}
	if err := cycle.Validate(); err != nil {
		return core.TwelveWeekCycle{}, err
	}

	if in.CycleID == nil {
		created, err := s.store.CreateCycle(ctx, cycle)
		if err != nil {
			return core.TwelveWeekCycle{}, fmt.Errorf("create cycle: %w", err)
		}
		slog.InfoContext(ctx, "Cycle created",
			"id", created.ID, "user_id", created.UserID, "label", created.Label)
		publishChange(ctx, s.pub, amqp.ScopeCycle, amqp.ActionCreated, created.ID, created.UserID)
		return created, nil
	}

	existing, err := s.store.FindCycle(ctx, *in.CycleID)
	if err != nil {
		return core.TwelveWeekCycle{}, err
	}
	if err := authorizeCycle(existing, in.UserID, in.HouseholdID); err != nil {
		return core.TwelveWeekCycle{}, err
	}

	// A narrower window must not orphan expenses already logged inside the
	// old one.
	expenses, err := s.store.ListDailyExpensesByCycle(ctx, *in.CycleID)
	if err != nil {
		return core.TwelveWeekCycle{}, fmt.Errorf("list cycle expenses: %w", err)
	}
	for _, e := range expenses {
		if !e.Date.Within(cycle.StartDate, cycle.EndDate) {
			return core.TwelveWeekCycle{}, core.Validationf(
				"cycle window %s to %s would orphan expense %d dated %s",
				cycle.StartDate, cycle.EndDate, e.ID, e.Date)
		}
	}

	updated, err := s.store.UpdateCycle(ctx, *in.CycleID, cycle)
	if err != nil {
		return core.TwelveWeekCycle{}, fmt.Errorf("update cycle: %w", err)
	}
	slog.InfoContext(ctx, "Cycle updated", "id", updated.ID, "user_id", in.UserID)
	publishChange(ctx, s.pub, amqp.ScopeCycle, amqp.ActionUpdated, updated.ID, in.UserID)
	return updated, nil
}

func (s *CycleService) GetCycle(ctx context.Context, cycleID, userID int64, householdID *int64) (core.TwelveWeekCycle, error) {
	cycle, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return core.TwelveWeekCycle{}, err
	}
	if err := authorizeCycle(cycle, userID, householdID); err != nil {
		return core.TwelveWeekCycle{}, err
	}
	return cycle, nil
}

func (s *CycleService) ListCycles(ctx context.Context, userID int64) ([]core.TwelveWeekCycle, error) {
	return s.store.ListCyclesByUser(ctx, userID)
}

func (s *CycleService) GetCycleSummary(ctx context.Context, cycleID, userID int64, householdID *int64) (core.TwelveWeekCycleSummary, error) {
	cycle, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return core.TwelveWeekCycleSummary{}, err
	}
	if err := authorizeCycle(cycle, userID, householdID); err != nil {
		return core.TwelveWeekCycleSummary{}, err
	}

	expenses, err := s.store.ListDailyExpensesByCycle(ctx, cycleID)
	if err != nil {
		return core.TwelveWeekCycleSummary{}, fmt.Errorf("load daily expenses: %w", err)
	}
	return ComputeCycleSummary(cycle, expenses), nil
}

func (s *CycleService) DeleteCycle(ctx context.Context, cycleID, userID int64, householdID *int64) error {
	cycle, err := s.store.FindCycle(ctx, cycleID)
	if err != nil {
		return err
	}
	if err := authorizeCycle(cycle, userID, householdID); err != nil {
		return err
	}

	if err := s.store.DeleteCycle(ctx, cycleID); err != nil {
		return fmt.Errorf("delete cycle: %w", err)
	}
	slog.InfoContext(ctx, "Cycle deleted", "id", cycleID, "user_id", userID)
	publishChange(ctx, s.pub, amqp.ScopeCycle, amqp.ActionDeleted, cycleID, userID)
	return nil
}

// UpsertDailyExpense creates or edits a daily expense. A cycle-linked
// expense must fall inside the cycle's window; a cycle-less expense has no
// window constraint and never appears in cycle summaries.
func (s *CycleService) UpsertDailyExpense(ctx context.Context, in core.UpsertDailyExpenseInput) (core.DailyExpense, error) {
	expense := core.DailyExpense{
		UserID:      in.UserID,
		CycleID:     in.CycleID,
		CategoryID:  in.CategoryID,
		Date:        in.Date,
		AmountCents: in.AmountCents,
		Title:       in.Title,
		Status:      in.Status,
		Type:        in.Type,
	}
	if err := expense.Validate(); err != nil {
		return core.DailyExpense{}, err
	}

	if in.CycleID != nil {
		cycle, err := s.store.FindCycle(ctx, *in.CycleID)
		if err != nil {
			return core.DailyExpense{}, err
		}
		if err := authorizeCycle(cycle, in.UserID, in.HouseholdID); err != nil {
			return core.DailyExpense{}, err
		}
		if !in.Date.Within(cycle.StartDate, cycle.EndDate) {
			return core.DailyExpense{}, core.Validationf(
				"expense date %s is outside cycle window %s to %s",
				in.Date, cycle.StartDate, cycle.EndDate)
		}
	}

	if in.ExpenseID == nil {
		created, err := s.store.CreateDailyExpense(ctx, expense)
		if err != nil {
			return core.DailyExpense{}, fmt.Errorf("create daily expense: %w", err)
		}
		slog.InfoContext(ctx, "Daily expense created",
			"id", created.ID, "user_id", created.UserID, "amount_cents", created.AmountCents)
		publishChange(ctx, s.pub, amqp.ScopeDailyExpense, amqp.ActionCreated, created.ID, created.UserID)
		return created, nil
	}

	existing, err := s.store.FindDailyExpense(ctx, *in.ExpenseID)
	if err != nil {
		return core.DailyExpense{}, err
	}
	if existing.UserID != in.UserID {
		return core.DailyExpense{}, core.Forbiddenf("user %d may not access daily expense %d", in.UserID, *in.ExpenseID)
	}

	updated, err := s.store.UpdateDailyExpense(ctx, *in.ExpenseID, expense)
	if err != nil {
		return core.DailyExpense{}, fmt.Errorf("update daily expense: %w", err)
	}
	slog.InfoContext(ctx, "Daily expense updated", "id", updated.ID, "user_id", in.UserID)
	publishChange(ctx, s.pub, amqp.ScopeDailyExpense, amqp.ActionUpdated, updated.ID, in.UserID)
	return updated, nil
}

func (s *CycleService) DeleteDailyExpense(ctx context.Context, id, userID int64) error {
	expense, err := s.store.FindDailyExpense(ctx, id)
	if err != nil {
		return err
	}
	if expense.UserID != userID {
		return core.Forbiddenf("user %d may not access daily expense %d", userID, id)
	}

	if err := s.store.DeleteDailyExpense(ctx, id); err != nil {
		return fmt.Errorf("delete daily expense: %w", err)
	}
	slog.InfoContext(ctx, "Daily expense deleted", "id", id, "user_id", userID)
	publishChange(ctx, s.pub, amqp.ScopeDailyExpense, amqp.ActionDeleted, id, userID)
	return nil
}

// DailyTotalsForRange rolls the user's daily expenses up into one total per
// distinct date across the range, including cycle-less expenses.
func (s *CycleService) DailyTotalsForRange(ctx context.Context, userID int64, start, end core.Date) (iter.Seq[core.DailyTotal], error) {
	if end.Before(start.Time) {
		return nil, core.Validationf("range end %s precedes start %s", end, start)
	}
	expenses, err := s.store.ListDailyExpensesByUserRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load daily expenses: %w", err)
	}
	return DailyTotals(expenses), nil
}
