// Package credstore persists the client's credential record.
package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/kinance/kinance-go/internal/telemetry/logger"
	"github.com/kinance/kinance-go/internal/telemetry/metric"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the database in memory (tests, --ephemeral).
	InMemory bool

	// Namespace prefixes physical keys. Default: "kinance".
	Namespace string

	// EncryptionKey enables AEAD sealing of values when non-nil (32 bytes).
	EncryptionKey []byte

	Logger  logger.Logger
	Metrics *metric.Registry
}

// BadgerStore implements Store on Badger v3.
//
// Multi-key writes run in a single Badger transaction, which makes them
// atomic on disk. Writes are fsynced.
type BadgerStore struct {
	db        *badger.DB
	namespace string
	sealer    *sealer
	logger    logger.Logger
	metrics   *metric.Registry
}

// OpenBadger opens (or creates) a credential database.
func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	if opts.Dir == "" && !opts.InMemory {
		return nil, fmt.Errorf("credstore: dir is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	var s *sealer
	if opts.EncryptionKey != nil {
		var err error
		if s, err = newSealer(opts.EncryptionKey); err != nil {
			return nil, fmt.Errorf("credstore: %w", err)
		}
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithLogger(&badgerLogger{logger: opts.Logger.With("component", "badger")}).
		WithSyncWrites(!opts.InMemory).
		WithNumVersionsToKeep(1).
		WithValueLogFileSize(16 << 20)
	if opts.InMemory {
		bopts.Dir = ""
		bopts.ValueDir = ""
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("credstore: open badger: %w", err)
	}

	opts.Logger.Debug("credential store opened",
		"dir", opts.Dir,
		"in_memory", opts.InMemory,
		"sealed", s != nil)

	return &BadgerStore{
		db:        db,
		namespace: opts.Namespace,
		sealer:    s,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}, nil
}

// Get retrieves a value by key.
func (b *BadgerStore) Get(ctx context.Context, key Key) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, &StorageError{Op: "get", Keys: []Key{key}, Err: err}
	}

	pk := physicalKey(b.namespace, key)
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pk)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		b.metrics.ObserveStoreOp("get", nil)
		return "", false, nil
	}
	if err == nil && b.sealer != nil {
		raw, err = b.sealer.open(raw, pk)
		if err != nil {
			err = fmt.Errorf("open sealed value: %w", err)
		}
	}
	b.metrics.ObserveStoreOp("get", err)
	if err != nil {
		return "", false, &StorageError{Op: "get", Keys: []Key{key}, Err: err}
	}

	return string(raw), true, nil
}

// SetAll stores every pair in one transaction.
func (b *BadgerStore) SetAll(ctx context.Context, pairs map[Key]string) error {
	keys := sortedKeys(pairs)
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "set_all", Keys: keys, Err: err}
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			pk := physicalKey(b.namespace, k)
			value := []byte(pairs[k])
			if b.sealer != nil {
				sealed, err := b.sealer.seal(value, pk)
				if err != nil {
					return fmt.Errorf("seal %s: %w", k, err)
				}
				value = sealed
			}
			if err := txn.Set(pk, value); err != nil {
				return err
			}
		}
		return nil
	})
	b.metrics.ObserveStoreOp("set_all", err)
	if err != nil {
		return &StorageError{Op: "set_all", Keys: keys, Err: err}
	}
	return nil
}

// RemoveAll deletes every key in one transaction. Missing keys are not an error.
func (b *BadgerStore) RemoveAll(ctx context.Context, keys ...Key) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "remove_all", Keys: keys, Err: err}
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(physicalKey(b.namespace, k)); err != nil {
				return err
			}
		}
		return nil
	})
	b.metrics.ObserveStoreOp("remove_all", err)
	if err != nil {
		return &StorageError{Op: "remove_all", Keys: keys, Err: err}
	}
	return nil
}

// Close closes the database.
func (b *BadgerStore) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("credstore: close badger: %w", err)
	}
	return nil
}

// badgerLogger adapts Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
