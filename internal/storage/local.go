package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage is a durable Provider backed by a JSON object file.
type LocalStorage struct {
	Path string

	mu sync.Mutex
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(path string) *LocalStorage {
	return &LocalStorage{
		Path: path,
	}
}

// EnsureDir ensures the storage directory exists
func (ls *LocalStorage) EnsureDir() error {
	dir := filepath.Dir(ls.Path)
	return os.MkdirAll(dir, 0700)
}

// Exists checks if the storage file exists
func (ls *LocalStorage) Exists() bool {
	_, err := os.Stat(ls.Path)
	return err == nil
}

// Get implements Provider.
func (ls *LocalStorage) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	values, err := ls.load()
	if err != nil {
		return nil, err
	}
	return pick(values, keys), nil
}

// Set implements Provider.
func (ls *LocalStorage) Set(ctx context.Context, items map[string]*string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	values, err := ls.load()
	if err != nil {
		return err
	}
	apply(values, items)
	return ls.save(values)
}

func (ls *LocalStorage) load() (map[string]string, error) {
	data, err := os.ReadFile(ls.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("%w: failed to read storage file: %v", ErrStorageFailure, err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: failed to parse storage file: %v", ErrStorageFailure, err)
	}
	return values, nil
}

func (ls *LocalStorage) save(values map[string]string) error {
	if err := ls.EnsureDir(); err != nil {
		return fmt.Errorf("%w: failed to create storage directory: %v", ErrStorageFailure, err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to serialize storage: %v", ErrStorageFailure, err)
	}

	if err := os.WriteFile(ls.Path, data, 0600); err != nil {
		return fmt.Errorf("%w: failed to write storage file: %v", ErrStorageFailure, err)
	}

	return nil
}
