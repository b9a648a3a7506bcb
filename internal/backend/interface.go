package backend

import (
	"context"

	"busta/internal/amqp"
	"busta/internal/export"
	"busta/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result bundles everything a wired backend provides. Publisher and
// Writer may be nil when the corresponding integration is not
// configured.
type Result struct {
	Store     store.Store
	Publisher *amqp.Client
	Writer    export.SummaryWriter
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// AMQP change feed (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (optional)
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string
}

// Type represents the kind of data backend.
type Type string

const (
	SQLiteType Type = "sqlite"
	MemoryType Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteType, MemoryType:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLiteType, MemoryType}
}
