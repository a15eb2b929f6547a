// Package storefake provides a fault-injecting credstore.Store for tests.
package storefake

import (
	"context"
	"errors"
	"sync"

	"github.com/kinance/kinance-go/internal/client/credstore"
)

// ErrInjected is the cause carried by injected failures.
var ErrInjected = errors.New("injected storage failure")

// Store is an in-memory credstore.Store whose operations can be made to fail.
type Store struct {
	mu     sync.Mutex
	values map[credstore.Key]string

	// FailGet, FailSetAll and FailRemoveAll make the matching operation
	// return a *credstore.StorageError wrapping ErrInjected.
	FailGet       bool
	FailSetAll    bool
	FailRemoveAll bool

	GetCalls       int
	SetAllCalls    int
	RemoveAllCalls int
}

// New creates a fake store seeded with values.
func New(seed map[credstore.Key]string) *Store {
	values := make(map[credstore.Key]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &Store{values: values}
}

// Get implements credstore.Store.
func (s *Store) Get(_ context.Context, key credstore.Key) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.FailGet {
		return "", false, &credstore.StorageError{Op: "get", Keys: []credstore.Key{key}, Err: ErrInjected}
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// SetAll implements credstore.Store.
func (s *Store) SetAll(_ context.Context, pairs map[credstore.Key]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetAllCalls++
	if s.FailSetAll {
		return &credstore.StorageError{Op: "set_all", Err: ErrInjected}
	}
	for k, v := range pairs {
		s.values[k] = v
	}
	return nil
}

// RemoveAll implements credstore.Store.
func (s *Store) RemoveAll(_ context.Context, keys ...credstore.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RemoveAllCalls++
	if s.FailRemoveAll {
		return &credstore.StorageError{Op: "remove_all", Keys: keys, Err: ErrInjected}
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Close implements credstore.Store.
func (s *Store) Close() error {
	return nil
}

// Value returns the stored value without counting a call.
func (s *Store) Value(key credstore.Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

var _ credstore.Store = (*Store)(nil)
