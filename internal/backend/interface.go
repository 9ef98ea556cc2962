package backend

import (
	"context"

	"bilancio/internal/kv"
	"bilancio/internal/services"
)

// BackendType identifies a key-value storage implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

// IsValid reports whether t is a known backend.
func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

func (t BackendType) String() string {
	return string(t)
}

// BackendResult holds the storage and publisher the FinanceService runs on.
// Publisher is nil when AMQP is disabled or unreachable. Closing the service
// releases both.
type BackendResult struct {
	Store     kv.Store
	Publisher services.EventPublisher
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite configuration
	SQLiteDBPath string

	// Memory configuration: seed files are read from <DataDirectory>/<key>.json
	DataDirectory string

	// AMQP configuration, optional for every backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
