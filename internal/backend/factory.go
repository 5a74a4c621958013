package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	applog "budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
	"budget/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(applog.FieldComponent, applog.ComponentBackend),
	}
}

// CreateBackend opens the configured ledger and wires the services on top of it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		ledger storage.Ledger
		err    error
	)
	switch config.Type {
	case SQLiteBackend:
		ledger, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		ledger = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	ledgerService := services.NewLedgerService(ledger, f.publisher(ctx, config))

	return &BackendResult{
		Ledger:     ledgerService,
		Processor:  services.NewRecurringProcessor(ledgerService),
		Query:      services.NewQueryService(ledger),
		Reconciler: services.NewReconciler(ledger),
		Cleanup:    ledgerService.Close,
	}, nil
}

// publisher connects to the broker when configured. A broker that cannot
// be reached disables events instead of failing startup.
func (f *DefaultFactory) publisher(ctx context.Context, config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		return nil
	}
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
