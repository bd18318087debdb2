package storage

import (
	"fmt"

	"moneymood/internal/log"
)

// BackendType names a Store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (b BackendType) IsValid() bool {
	return b == MemoryBackend || b == SQLiteBackend
}

// Open creates the Store for backend. sqlitePath and logger are only used by
// the sqlite backend.
func Open(backend BackendType, sqlitePath string, logger *log.Logger) (Store, error) {
	switch backend {
	case SQLiteBackend:
		s, err := NewSQLiteStore(sqlitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case MemoryBackend:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backend)
	}
}
