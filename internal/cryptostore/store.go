// Package cryptostore provides symmetric at-rest encryption for media
// payloads and transcript artifacts. Every payload passes through this
// store before touching durable storage; plaintext only exists inside a
// single pipeline execution's workspace.
package cryptostore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// ErrIntegrity is returned when decryption input is tampered, truncated,
// or was produced under a different key. Decrypt never returns garbage.
var ErrIntegrity = errors.New("cryptostore: payload integrity check failed")

// Store encrypts and decrypts byte payloads with a single process-wide
// key. The key is read-only after construction, so a Store is safe for
// unsynchronized concurrent use.
type Store struct {
	aead cipher.AEAD
}

// New creates a Store from a raw 32-byte key.
func New(key []byte) (*Store, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cryptostore: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptostore: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptostore: %w", err)
	}
	return &Store{aead: aead}, nil
}

// NewFromHex creates a Store from a hex-encoded key, as supplied by
// configuration at startup.
func NewFromHex(hexKey string) (*Store, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("cryptostore: invalid hex key: %w", err)
	}
	return New(key)
}

// GenerateKey returns a fresh random key, hex-encoded. Intended for
// bootstrapping a deployment, not for mid-run rotation.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("cryptostore: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Encrypt seals plaintext with a random nonce. The nonce is prepended to
// the returned ciphertext.
func (s *Store) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptostore: nonce generation failed: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a payload produced by Encrypt. Tampered or wrong-key
// input yields ErrIntegrity.
func (s *Store) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, ErrIntegrity
	}
	nonce, sealed := ciphertext[:s.aead.NonceSize()], ciphertext[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}
