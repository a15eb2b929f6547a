// Package credstore persists the client's credential record.
package credstore

import (
	"context"
	"sync"
)

// Memory is a process-local Store. Its contents are lost on exit.
type Memory struct {
	mu     sync.RWMutex
	values map[Key]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[Key]string)}
}

// Get retrieves a value by key.
func (m *Memory) Get(ctx context.Context, key Key) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &StorageError{Op: "get", Keys: []Key{key}, Err: err}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// SetAll stores every pair under one lock.
func (m *Memory) SetAll(ctx context.Context, pairs map[Key]string) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "set_all", Keys: sortedKeys(pairs), Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range pairs {
		m.values[k] = v
	}
	return nil
}

// RemoveAll deletes every key under one lock.
func (m *Memory) RemoveAll(ctx context.Context, keys ...Key) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "remove_all", Keys: keys, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
