package history

import "fmt"

// NewStore opens the backend named by kind. dsn is a redis:// URL for redis
// and a database path for sqlite; memory ignores it.
func NewStore(kind, dsn string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return OpenRedisStore(dsn)
	case "sqlite":
		return newSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", kind)
	}
}

// CloseIfSupported closes stores holding a connection
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
