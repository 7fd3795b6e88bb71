package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SessionKey is a 32-byte symmetric key scoped to a single client session.
//
// It protects payloads only. It is passed by value into every encrypt/decrypt call
// and is never used to derive, or stand in for, a MasterKey.
type SessionKey []byte

// NewSessionKey generates a random session key using crypto/rand.
func NewSessionKey() (SessionKey, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return SessionKey(key), nil
}

// Validate returns ErrInvalidKeyLength unless the key is exactly KeySize bytes.
func (k SessionKey) Validate() error {
	if len(k) != KeySize {
		return fmt.Errorf("%w: session key must be %d bytes, got %d", ErrInvalidKeyLength, KeySize, len(k))
	}
	return nil
}

// MasterKey is the long-lived 32-byte server key derived once per process.
//
// The key material is unexported so it cannot be serialized by accident. It protects
// replay metadata only and is immutable after construction.
type MasterKey struct {
	key []byte
}

// NewMasterKey copies key into a new MasterKey.
func NewMasterKey(key []byte) (*MasterKey, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrInvalidKeyLength, KeySize, len(key))
	}
	buf := make([]byte, KeySize)
	copy(buf, key)
	return &MasterKey{key: buf}, nil
}

// Bytes returns a copy of the key material.
func (m *MasterKey) Bytes() []byte {
	buf := make([]byte, len(m.key))
	copy(buf, m.key)
	return buf
}

// Fingerprint returns the hex SHA-256 digest of the key, safe to print or log.
func (m *MasterKey) Fingerprint() string {
	sum := sha256.Sum256(m.key)
	return hex.EncodeToString(sum[:])
}

// String hides the key material from fmt and slog.
func (m *MasterKey) String() string {
	return "MasterKey(redacted)"
}

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
