package credstore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v3"

	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

func openTestBadger(t *testing.T, opts BadgerOptions) *BadgerStore {
	t.Helper()
	if opts.Dir == "" && !opts.InMemory {
		opts.Dir = t.TempDir()
	}
	opts.Logger = logger.Discard()
	s, err := OpenBadger(opts)
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenBadger_RequiresDir(t *testing.T) {
	if _, err := OpenBadger(BadgerOptions{}); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestBadgerStore_BasicOperations(t *testing.T) {
	s := openTestBadger(t, BadgerOptions{})
	ctx := context.Background()

	t.Run("Get absent key", func(t *testing.T) {
		v, ok, err := s.Get(ctx, KeyAccessToken)
		if err != nil {
			t.Fatal(err)
		}
		if ok || v != "" {
			t.Errorf("Get() = %q, %v; want absent", v, ok)
		}
	})

	t.Run("SetAll and Get", func(t *testing.T) {
		err := s.SetAll(ctx, map[Key]string{
			KeyAccessToken:  "T1",
			KeyRefreshToken: "R1",
			KeyUserProfile:  `{"email":"a@b.com"}`,
		})
		if err != nil {
			t.Fatal(err)
		}

		for key, want := range map[Key]string{KeyAccessToken: "T1", KeyRefreshToken: "R1"} {
			got, ok, err := s.Get(ctx, key)
			if err != nil || !ok || got != want {
				t.Errorf("Get(%s) = %q, %v, %v; want %q", key, got, ok, err, want)
			}
		}
	})

	t.Run("SetAll overwrites single field", func(t *testing.T) {
		if err := s.SetAll(ctx, map[Key]string{KeyAccessToken: "T2"}); err != nil {
			t.Fatal(err)
		}
		got, _, _ := s.Get(ctx, KeyAccessToken)
		if got != "T2" {
			t.Errorf("access token = %q, want T2", got)
		}
		if got, _, _ := s.Get(ctx, KeyRefreshToken); got != "R1" {
			t.Errorf("refresh token = %q, want R1 untouched", got)
		}
	})

	t.Run("RemoveAll", func(t *testing.T) {
		if err := s.RemoveAll(ctx, AllKeys()...); err != nil {
			t.Fatal(err)
		}
		for _, k := range AllKeys() {
			if _, ok, _ := s.Get(ctx, k); ok {
				t.Errorf("%s should be removed", k)
			}
		}
	})

	t.Run("RemoveAll missing keys", func(t *testing.T) {
		if err := s.RemoveAll(ctx, AllKeys()...); err != nil {
			t.Errorf("RemoveAll on empty store: %v", err)
		}
	})
}

func TestBadgerStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(BadgerOptions{Dir: dir, Logger: logger.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetAll(ctx, map[Key]string{KeyAccessToken: "T1"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2 := openTestBadger(t, BadgerOptions{Dir: dir})
	got, ok, err := s2.Get(ctx, KeyAccessToken)
	if err != nil || !ok || got != "T1" {
		t.Errorf("after reopen Get() = %q, %v, %v", got, ok, err)
	}
}

func TestBadgerStore_Namespace(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(BadgerOptions{Dir: dir, Namespace: "app1", Logger: logger.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetAll(ctx, map[Key]string{KeyAccessToken: "T1"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	other := openTestBadger(t, BadgerOptions{Dir: dir, Namespace: "app2"})
	if _, ok, _ := other.Get(ctx, KeyAccessToken); ok {
		t.Error("namespaces should not share keys")
	}
}

func TestBadgerStore_Sealed(t *testing.T) {
	key := bytes.Repeat([]byte{7}, EncryptionKeySize)
	s := openTestBadger(t, BadgerOptions{InMemory: true, EncryptionKey: key})
	ctx := context.Background()

	if err := s.SetAll(ctx, map[Key]string{KeyRefreshToken: "R1"}); err != nil {
		t.Fatal(err)
	}

	// Raw value on disk must not be the plaintext.
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(physicalKey(DefaultNamespace, KeyRefreshToken))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) == "R1" {
		t.Error("value stored in plaintext")
	}

	got, ok, err := s.Get(ctx, KeyRefreshToken)
	if err != nil || !ok || got != "R1" {
		t.Errorf("Get() = %q, %v, %v; want R1", got, ok, err)
	}
}

func TestBadgerStore_SealedTamper(t *testing.T) {
	key := bytes.Repeat([]byte{7}, EncryptionKeySize)
	s := openTestBadger(t, BadgerOptions{InMemory: true, EncryptionKey: key})
	ctx := context.Background()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(physicalKey(DefaultNamespace, KeyAccessToken), []byte("not sealed at all"))
	})
	if err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Get(ctx, KeyAccessToken)
	if ok {
		t.Error("tampered value should not be returned")
	}
	if !errors.Is(err, ErrStorage) {
		t.Errorf("err = %v, want ErrStorage", err)
	}
}

func TestBadgerStore_CanceledContext(t *testing.T) {
	s := openTestBadger(t, BadgerOptions{InMemory: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SetAll(ctx, map[Key]string{KeyAccessToken: "T1"})
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StorageError", err)
	}
	if se.Op != "set_all" {
		t.Errorf("Op = %q, want set_all", se.Op)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("StorageError should unwrap to context.Canceled")
	}
}

func TestOpenBadger_BadKey(t *testing.T) {
	_, err := OpenBadger(BadgerOptions{InMemory: true, EncryptionKey: []byte("short"), Logger: logger.Discard()})
	if err == nil {
		t.Error("expected error for short encryption key")
	}
}
