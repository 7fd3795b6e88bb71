package service

import (
	"encoding/json"
	"fmt"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// AEADCodec seals structured values under a session key into a CiphertextBundle and
// opens them again.
//
// Values are serialized to UTF-8 JSON before encryption. The tag is detached from the
// ciphertext in the bundle and re-attached before verification.
type AEADCodec struct {
	aeadManager AEADManager
	algorithm   envelopeDomain.Algorithm
}

// NewAEADCodec creates an AEADCodec that builds ciphers of the given algorithm.
func NewAEADCodec(aeadManager AEADManager, algorithm envelopeDomain.Algorithm) *AEADCodec {
	return &AEADCodec{
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// Encrypt serializes value to JSON and seals it under key with a fresh random nonce.
//
// Returns ErrInvalidKeyLength if the key is not 32 bytes and ErrFormat if value cannot
// be serialized.
func (c *AEADCodec) Encrypt(value any, key envelopeDomain.SessionKey) (envelopeDomain.CiphertextBundle, error) {
	return c.encrypt(value, key, nil)
}

// Decrypt verifies and opens bundle under key and unmarshals the JSON plaintext into out.
//
// Returns ErrAuthentication if the tag does not verify, in which case out is untouched.
// Returns ErrFormat if the verified plaintext does not unmarshal into out.
func (c *AEADCodec) Decrypt(bundle envelopeDomain.CiphertextBundle, key envelopeDomain.SessionKey, out any) error {
	return c.decrypt(bundle, key, nil, out)
}

// SealEnvelope encrypts value under key and packs it into a textual envelope whose
// request id and timestamp are authenticated as associated data (see HeaderAAD).
func (c *AEADCodec) SealEnvelope(
	value any,
	key envelopeDomain.SessionKey,
	requestID string,
	timestamp int64,
) (string, error) {
	bundle, err := c.encrypt(value, key, envelopeDomain.HeaderAAD(requestID, timestamp))
	if err != nil {
		return "", err
	}
	return envelopeDomain.Pack(bundle, requestID, timestamp), nil
}

// OpenEnvelope unpacks envelope and decrypts it into out, verifying the header fields
// together with the ciphertext. An envelope whose request id or timestamp was rewritten
// fails with ErrAuthentication and out is untouched.
func (c *AEADCodec) OpenEnvelope(
	envelope string,
	key envelopeDomain.SessionKey,
	out any,
) (envelopeDomain.Envelope, error) {
	env, err := envelopeDomain.Unpack(envelope)
	if err != nil {
		return envelopeDomain.Envelope{}, err
	}

	if err := c.decrypt(env.Bundle, key, envelopeDomain.HeaderAAD(env.RequestID, env.Timestamp), out); err != nil {
		return envelopeDomain.Envelope{}, err
	}
	return env, nil
}

func (c *AEADCodec) encrypt(value any, key envelopeDomain.SessionKey, aad []byte) (envelopeDomain.CiphertextBundle, error) {
	if err := key.Validate(); err != nil {
		return envelopeDomain.CiphertextBundle{}, err
	}

	plaintext, err := json.Marshal(value)
	if err != nil {
		return envelopeDomain.CiphertextBundle{}, fmt.Errorf("%w: value is not serializable: %v", envelopeDomain.ErrFormat, err)
	}
	defer envelopeDomain.Zero(plaintext)

	return c.seal(plaintext, key, aad)
}

func (c *AEADCodec) decrypt(
	bundle envelopeDomain.CiphertextBundle,
	key envelopeDomain.SessionKey,
	aad []byte,
	out any,
) error {
	if err := key.Validate(); err != nil {
		return err
	}

	plaintext, err := c.open(bundle, key, aad)
	if err != nil {
		return err
	}
	defer envelopeDomain.Zero(plaintext)

	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: decrypted payload is not valid JSON for the target type", envelopeDomain.ErrFormat)
	}
	return nil
}

func (c *AEADCodec) seal(plaintext, key, aad []byte) (envelopeDomain.CiphertextBundle, error) {
	aead, err := c.aeadManager.CreateCipher(key, c.algorithm)
	if err != nil {
		return envelopeDomain.CiphertextBundle{}, err
	}

	sealed, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return envelopeDomain.CiphertextBundle{}, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	split := len(sealed) - envelopeDomain.TagSize
	return envelopeDomain.CiphertextBundle{
		Nonce:      nonce,
		Ciphertext: sealed[:split:split],
		Tag:        sealed[split:],
	}, nil
}

func (c *AEADCodec) open(bundle envelopeDomain.CiphertextBundle, key, aad []byte) ([]byte, error) {
	if len(bundle.Nonce) != envelopeDomain.NonceSize || len(bundle.Tag) != envelopeDomain.TagSize {
		return nil, envelopeDomain.ErrAuthentication
	}

	aead, err := c.aeadManager.CreateCipher(key, c.algorithm)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(bundle.Ciphertext)+len(bundle.Tag))
	sealed = append(sealed, bundle.Ciphertext...)
	sealed = append(sealed, bundle.Tag...)

	plaintext, err := aead.Decrypt(sealed, bundle.Nonce, aad)
	if err != nil {
		return nil, envelopeDomain.ErrAuthentication
	}
	return plaintext, nil
}
