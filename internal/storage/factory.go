package storage

import "fmt"

// Backend selects a Store implementation.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

func (b Backend) Valid() bool {
	return b == BackendSQLite || b == BackendMemory
}

// Open creates the store for the chosen backend. The memory backend
// holds nothing across restarts and exists for development and tests.
func Open(backend Backend, dbPath string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return NewSQLiteStore(dbPath)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}
