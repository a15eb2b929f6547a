// Package credstore persists the client's credential record.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Key identifies one entry of the credential record.
type Key string

// Fixed credential record keys.
const (
	KeyAccessToken  Key = "access_token"
	KeyRefreshToken Key = "refresh_token"
	KeyUserProfile  Key = "user_data"
)

// DefaultNamespace prefixes physical keys so several applications can share
// one storage directory.
const DefaultNamespace = "kinance"

// AllKeys returns every key of the credential record.
func AllKeys() []Key {
	return []Key{KeyAccessToken, KeyRefreshToken, KeyUserProfile}
}

// ErrStorage matches any StorageError via errors.Is.
var ErrStorage = errors.New("credential storage failure")

// Store is durable key/value persistence for the credential record.
//
// Get reports an absent key as ok=false with a nil error. SetAll and
// RemoveAll either apply every pair or none of them; on failure they return
// a *StorageError.
type Store interface {
	Get(ctx context.Context, key Key) (value string, ok bool, err error)
	SetAll(ctx context.Context, pairs map[Key]string) error
	RemoveAll(ctx context.Context, keys ...Key) error
	Close() error
}

// StorageError describes a failed read or write of the durable layer.
type StorageError struct {
	Op   string // get, set_all, remove_all
	Keys []Key
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	keys := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		keys[i] = string(k)
	}
	return fmt.Sprintf("credstore %s [%s]: %v", e.Op, strings.Join(keys, ","), e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func physicalKey(namespace string, key Key) []byte {
	if namespace == "" {
		return []byte(key)
	}
	return []byte(namespace + ":" + string(key))
}

func sortedKeys(pairs map[Key]string) []Key {
	keys := make([]Key, 0, len(pairs))
	for _, k := range AllKeys() {
		if _, ok := pairs[k]; ok {
			keys = append(keys, k)
		}
	}
	for k := range pairs {
		if !isFixedKey(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func isFixedKey(k Key) bool {
	return k == KeyAccessToken || k == KeyRefreshToken || k == KeyUserProfile
}
