package backend

import (
	"context"
	"fmt"

	"bilancio/internal/amqp"
	"bilancio/internal/kv"
	"bilancio/internal/kv/memory"
	"bilancio/internal/log"
	"bilancio/internal/storage"
)

const defaultDataDirectory = "data"

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dial connects the AMQP publisher; replaced in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger,
		dial:   amqp.NewClient,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store kv.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = f.createSQLiteStore(ctx, config)
	case MemoryBackend:
		store = f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store}
	// The publisher is assigned only when the client exists so that the
	// interface never holds a typed nil.
	if client := f.createPublisher(ctx, config); client != nil {
		result.Publisher = client
	}
	return result, nil
}

func (f *DefaultFactory) createSQLiteStore(ctx context.Context, config Config) (kv.Store, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) kv.Store {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = defaultDataDirectory
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return store
}

// createPublisher connects to AMQP when configured. A connection failure is
// logged and the application continues without events.
func (f *DefaultFactory) createPublisher(ctx context.Context, config Config) *amqp.Client {
	if config.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP disabled, events will not be published")
		return nil
	}

	client, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}
