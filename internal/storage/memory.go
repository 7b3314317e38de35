package storage

import (
	"context"
	"sync"
)

// MemoryStorage is a Provider that lives only as long as the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage creates an empty in-memory provider.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get implements Provider.
func (ms *MemoryStorage) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return pick(ms.values, keys), nil
}

// Set implements Provider.
func (ms *MemoryStorage) Set(ctx context.Context, items map[string]*string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	apply(ms.values, items)
	return nil
}
