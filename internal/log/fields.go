package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID        = "user_id"
	FieldBudgetID      = "budget_id"
	FieldEntryID       = "entry_id"
	FieldTransactionID = "transaction_id"
	FieldCycleID       = "cycle_id"
	FieldAmountCents   = "amount_cents"
	FieldLabel         = "label"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBudget    = "budget"
	ComponentCycle     = "cycle"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentBackend   = "backend"
	ComponentRateLimit = "rate_limit"
)
