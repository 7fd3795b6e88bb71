package domain

import (
	"github.com/allisson/msc/internal/errors"
)

// Envelope error definitions.
//
// Every error belongs to one of the categories in internal/errors, which picks the HTTP
// status, and carries a code that is returned to clients alongside it.
var (
	// ErrConfiguration indicates missing or invalid secrets at construction time.
	// It is fatal at startup and never produced while serving requests.
	ErrConfiguration = errors.Coded(errors.ErrInvalidInput, "configuration_error", "configuration error")

	// ErrFormat indicates a malformed envelope or ciphertext bundle, or decrypted bytes
	// that do not parse as the expected structured value.
	ErrFormat = errors.Coded(errors.ErrInvalidInput, "malformed_envelope", "malformed envelope")

	// ErrStructure indicates a well-formed envelope with missing or mistyped fields.
	ErrStructure = errors.Coded(errors.ErrInvalidInput, "invalid_structure", "invalid envelope structure")

	// ErrUnsecuredData indicates an envelope whose is_secured flag is false or absent.
	ErrUnsecuredData = errors.Coded(errors.ErrInvalidInput, "unsecured_data", "unsecured data rejected")

	// ErrAuthentication indicates the authentication tag did not verify.
	//
	// The cause (wrong key, corrupted nonce, ciphertext or tag) is never disclosed.
	ErrAuthentication = errors.Coded(errors.ErrInvalidInput, "authentication_failed", "authentication failed")

	// ErrInvalidKeyLength indicates a symmetric key that is not exactly KeySize bytes.
	ErrInvalidKeyLength = errors.Coded(errors.ErrInvalidInput, "invalid_key_length", "invalid key length")

	// ErrKeyFormat indicates malformed asymmetric key material.
	ErrKeyFormat = errors.Coded(errors.ErrInvalidInput, "invalid_key_format", "invalid key format")

	// ErrUnwrap indicates a wrapped session key could not be decrypted.
	ErrUnwrap = errors.Coded(errors.ErrInvalidInput, "unwrap_failed", "failed to unwrap session key")

	// ErrUnsupportedAlgorithm indicates an unknown AEAD algorithm name.
	ErrUnsupportedAlgorithm = errors.Coded(errors.ErrInvalidInput, "unsupported_algorithm", "unsupported algorithm")

	// ErrAuthorization indicates the access gate rejected the presented token.
	ErrAuthorization = errors.Coded(errors.ErrUnauthorized, "access_denied", "access token rejected")

	// ErrStaleRequest indicates replay metadata whose timestamp is outside the window.
	ErrStaleRequest = errors.Coded(errors.ErrUnauthorized, "stale_request", "request timestamp outside replay window")

	// ErrReplayDetected indicates a request id that was already accepted.
	ErrReplayDetected = errors.Coded(errors.ErrConflict, "replay_detected", "request replay detected")

	// ErrMetadataMismatch indicates replay metadata that names a different request than
	// the envelope it accompanies.
	ErrMetadataMismatch = errors.Coded(errors.ErrUnauthorized, "metadata_mismatch", "replay metadata does not match envelope")

	// ErrSessionNotFound indicates an unknown or expired session.
	ErrSessionNotFound = errors.Coded(errors.ErrNotFound, "session_not_found", "session not found")
)
