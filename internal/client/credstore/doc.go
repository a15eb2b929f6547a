// Package credstore persists the client's credential record.
//
// The record is three string entries: access token, refresh token and the
// JSON-serialized user profile. Writers always set or remove entries as a
// group so that "access token and profile are both present or both absent"
// holds on disk:
//
//   - store.go: Store interface, fixed keys and StorageError
//   - badger.go: durable implementation on Badger v3
//   - cipher.go: optional AEAD sealing of values at rest
//   - memory.go: in-process implementation for ephemeral sessions
//
// No implementation caches values or retries failed writes.
package credstore
