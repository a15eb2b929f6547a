// Package credstore persists the client's credential record.
package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptionKeySize is the required length of an at-rest encryption key.
const EncryptionKeySize = 32

// sealer provides authenticated encryption of stored values. The physical
// key is bound as additional data, so a value copied under another key
// fails to open.
type sealer struct {
	aead cipher.AEAD
}

// newSealer picks AES-256-GCM where the CPU accelerates AES and
// ChaCha20-Poly1305 elsewhere.
func newSealer(key []byte) (*sealer, error) {
	if len(key) != EncryptionKeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", EncryptionKeySize, len(key))
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch runtime.GOARCH {
	case "amd64", "arm64":
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	default:
		aead, err = chacha20poly1305.New(key)
	}
	if err != nil {
		return nil, err
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (s *sealer) open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:s.aead.NonceSize()]
	return s.aead.Open(nil, nonce, ciphertext[s.aead.NonceSize():], additionalData)
}

// ParseEncryptionKey decodes a hex-encoded 32-byte key. An empty string
// yields a nil key (values stored unsealed).
func ParseEncryptionKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != EncryptionKeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", EncryptionKeySize, len(key))
	}
	return key, nil
}
