// Package service implements the msc secure-envelope core: master key derivation, AEAD
// sealing of payloads under session keys, RSA-OAEP session key wrapping, replay metadata
// sealing under the master key and the access gate.
//
// Every type here is stateless apart from immutable keys set at construction, so all
// methods are safe for concurrent use without locking.
package service

import (
	"context"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext (tag appended) and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext (tag appended) using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg envelopeDomain.Algorithm) (AEAD, error)
}

// KMSKeeper is the subset of *secrets.Keeper used to protect configuration secrets.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KMSService opens KMS keepers from key URIs.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (KMSKeeper, error)
}
