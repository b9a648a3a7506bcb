package amqp

import (
	"encoding/json"
	"time"
)

// Change scopes, one per aggregate the engines mutate.
const (
	ScopeBudget       = "budget"
	ScopeEntry        = "entry"
	ScopeTransaction  = "transaction"
	ScopeCycle        = "cycle"
	ScopeDailyExpense = "daily_expense"
)

const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionAssigned  = "assigned"
	ActionReordered = "reordered"
)

// ChangeMessage is the lightweight notification published after a mutation.
// It carries only identifiers; the worker fetches current state from the
// store, so a stale message never overwrites a newer write.
type ChangeMessage struct {
	Scope     string    `json:"scope"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(scope, action string, id, userID int64) *ChangeMessage {
	return &ChangeMessage{
		Scope:     scope,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
