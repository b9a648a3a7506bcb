package services

import (
	"context"
	"log/slog"

	"busta/internal/amqp"
	"busta/internal/core"
)

// ChangePublisher is satisfied by *amqp.Client. A nil publisher disables
// change events without special-casing callers.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// publishChange never fails the request: the mutation is already committed,
// a lost event only delays the next summary export.
func publishChange(ctx context.Context, pub ChangePublisher, scope, action string, id, userID int64) {
	if pub == nil {
		return
	}
	msg := amqp.NewChangeMessage(scope, action, id, userID)
	if err := pub.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"scope", scope, "action", action, "id", id, "error", err)
	}
}

// authorizeBudget admits the owner, or any caller sharing the budget's
// household.
func authorizeBudget(b core.Budget, userID int64, householdID *int64) error {
	if b.UserID == userID {
		return nil
	}
	if b.HouseholdID != nil && householdID != nil && *b.HouseholdID == *householdID {
		return nil
	}
	return core.Forbiddenf("user %d may not access budget %d", userID, b.ID)
}

func authorizeCycle(c core.TwelveWeekCycle, userID int64, householdID *int64) error {
	if c.UserID == userID {
		return nil
	}
	if c.HouseholdID != nil && householdID != nil && *c.HouseholdID == *householdID {
		return nil
	}
	return core.Forbiddenf("user %d may not access cycle %d", userID, c.ID)
}
