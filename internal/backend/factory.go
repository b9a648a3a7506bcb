package backend

import (
	"context"
	"fmt"
	"log/slog"

	"busta/internal/amqp"
	"busta/internal/export"
	exportgoogle "busta/internal/export/google"
	exportmemory "busta/internal/export/memory"
	"busta/internal/store"
	storememory "busta/internal/store/memory"
	storesqlite "busta/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		result *Result
		err    error
	)
	switch cfg.Type {
	case SQLiteType:
		result, err = f.createSQLiteBackend(cfg)
	case MemoryType:
		result, err = f.createMemoryBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	result.Publisher = f.createPublisher(cfg)
	result.Writer, err = f.createWriter(ctx, cfg)
	if err != nil {
		if result.Cleanup != nil {
			_ = result.Cleanup()
		}
		return nil, err
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(cfg Config) (*Result, error) {
	repo, err := storesqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	return &Result{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(cfg Config) (*Result, error) {
	f.logger.Info("Initialized memory backend")

	return &Result{
		Store:   storememory.New(),
		Cleanup: nil,
	}, nil
}

// createPublisher wires the AMQP change feed when a broker URL is
// configured. A broken broker downgrades to no publishing instead of
// failing startup.
func (f *DefaultFactory) createPublisher(cfg Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change feed", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// createWriter picks the summary export destination. With a
// spreadsheet configured summaries go to Google Sheets, otherwise to
// an in-process recorder.
func (f *DefaultFactory) createWriter(ctx context.Context, cfg Config) (export.SummaryWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return exportmemory.New(), nil
	}
	cli, err := exportgoogle.New(ctx, exportgoogle.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleCredentialsFile,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets export: %w", err)
	}
	f.logger.Info("Initialized Google Sheets export",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return cli, nil
}

var _ store.Store = (*storememory.Store)(nil)
var _ store.Store = (*storesqlite.Repository)(nil)
