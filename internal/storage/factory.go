package storage

import "fmt"

// NewStore builds a backend by kind. path is the directory of a file store or
// the database file of a sqlite store; the memory store ignores it.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", KindFile:
		return NewFileStore(path), nil
	case KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func DefaultStoreKind() string {
	return KindFile
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
