package service

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

const replayGuardInfo = "msc-replay-guard-v1"

// ReplayGuard seals (request id, timestamp) tuples under a sub-key of the MasterKey.
//
// The sealed form uses the same "nonce:ciphertext:tag" bundle as payloads but can only be
// opened by the server. Checking freshness and uniqueness of the opened tuple is left to
// the caller.
type ReplayGuard struct {
	codec *AEADCodec
	key   []byte
}

// NewReplayGuard derives the replay sub-key from masterKey with HKDF-SHA256.
func NewReplayGuard(
	masterKey *envelopeDomain.MasterKey,
	aeadManager AEADManager,
	algorithm envelopeDomain.Algorithm,
) (*ReplayGuard, error) {
	if masterKey == nil {
		return nil, fmt.Errorf("%w: master key is required", envelopeDomain.ErrConfiguration)
	}

	secret := masterKey.Bytes()
	defer envelopeDomain.Zero(secret)

	key := make([]byte, envelopeDomain.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(replayGuardInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive replay guard key: %w", err)
	}

	return &ReplayGuard{
		codec: NewAEADCodec(aeadManager, algorithm),
		key:   key,
	}, nil
}

// SealMetadata encrypts the tuple and returns its bundle string.
func (g *ReplayGuard) SealMetadata(requestID string, timestamp int64) (string, error) {
	if requestID == "" {
		return "", fmt.Errorf("%w: request id is required", envelopeDomain.ErrStructure)
	}

	plaintext, err := json.Marshal(envelopeDomain.ReplayTuple{RequestID: requestID, Timestamp: timestamp})
	if err != nil {
		return "", fmt.Errorf("failed to encode replay metadata: %w", err)
	}
	defer envelopeDomain.Zero(plaintext)

	bundle, err := g.codec.seal(plaintext, g.key, nil)
	if err != nil {
		return "", err
	}
	return bundle.String(), nil
}

// OpenMetadata parses, verifies and decodes sealed replay metadata.
//
// Returns ErrFormat for a malformed bundle, ErrAuthentication when the bundle was not
// sealed by this server and ErrStructure when the tuple has no request id.
func (g *ReplayGuard) OpenMetadata(sealed string) (envelopeDomain.ReplayTuple, error) {
	bundle, err := envelopeDomain.ParseCiphertextBundle(sealed)
	if err != nil {
		return envelopeDomain.ReplayTuple{}, err
	}

	plaintext, err := g.codec.open(bundle, g.key, nil)
	if err != nil {
		return envelopeDomain.ReplayTuple{}, err
	}
	defer envelopeDomain.Zero(plaintext)

	var tuple envelopeDomain.ReplayTuple
	if err := json.Unmarshal(plaintext, &tuple); err != nil {
		return envelopeDomain.ReplayTuple{}, fmt.Errorf("%w: replay metadata is not valid JSON", envelopeDomain.ErrFormat)
	}
	if tuple.RequestID == "" {
		return envelopeDomain.ReplayTuple{}, fmt.Errorf("%w: replay metadata has no request id", envelopeDomain.ErrStructure)
	}
	return tuple, nil
}
