// Package domain defines the msc secure-envelope domain models: keys, ciphertext
// bundles, envelopes, replay metadata and sessions.
package domain

// Algorithm represents the AEAD algorithm used to seal payloads and metadata.
//
// Both supported algorithms use a 32-byte key, a 12-byte nonce and a 16-byte tag, so
// the ciphertext bundle wire format is identical whichever one is configured.
type Algorithm string

const (
	// AESGCM represents AES-256-GCM. This is the default.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// Prefix is the literal marker every envelope starts with.
	Prefix = "msc"

	// KeySize is the size in bytes of master and session keys.
	KeySize = 32

	// NonceSize is the AEAD nonce size in bytes.
	NonceSize = 12

	// TagSize is the AEAD authentication tag size in bytes.
	TagSize = 16

	// BundleSeparator joins the nonce, ciphertext and tag fields of a bundle.
	BundleSeparator = ":"

	// DevelopmentSalt is the salt used for master key derivation outside production
	// when SERVER_SALT is not configured.
	DevelopmentSalt = "msc-development-salt-do-not-use-in-production"
)

// ParseAlgorithm converts a string to an Algorithm.
func ParseAlgorithm(alg string) (Algorithm, error) {
	switch Algorithm(alg) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
