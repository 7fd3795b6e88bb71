package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/ssh"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// MinRSAKeyBits is the smallest RSA modulus accepted for session key wrapping.
const MinRSAKeyBits = 2048

// KeyExchange wraps session keys for delivery to a client using RSA-OAEP with SHA-256.
//
// The same hash is used for both the OAEP digest and MGF1.
type KeyExchange struct {
	random io.Reader
}

// NewKeyExchange creates a KeyExchange backed by crypto/rand.
func NewKeyExchange() *KeyExchange {
	return &KeyExchange{random: rand.Reader}
}

// Wrap encrypts sessionKey to publicKey and returns the standard base64 encoding.
func (k *KeyExchange) Wrap(sessionKey envelopeDomain.SessionKey, publicKey *rsa.PublicKey) (string, error) {
	if err := sessionKey.Validate(); err != nil {
		return "", err
	}
	if publicKey == nil {
		return "", fmt.Errorf("%w: public key is required", envelopeDomain.ErrKeyFormat)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), k.random, publicKey, sessionKey, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to wrap session key: %v", envelopeDomain.ErrKeyFormat, err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// Unwrap decodes and decrypts a wrapped session key with privateKey.
//
// Returns ErrUnwrap for bad base64 or a key pair mismatch, and ErrInvalidKeyLength if the
// recovered key is not 32 bytes.
func (k *KeyExchange) Unwrap(wrapped string, privateKey *rsa.PrivateKey) (envelopeDomain.SessionKey, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: private key is required", envelopeDomain.ErrKeyFormat)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(wrapped))
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key is not valid base64", envelopeDomain.ErrUnwrap)
	}

	key, err := rsa.DecryptOAEP(sha256.New(), nil, privateKey, ciphertext, nil)
	if err != nil {
		return nil, envelopeDomain.ErrUnwrap
	}

	sessionKey := envelopeDomain.SessionKey(key)
	if err := sessionKey.Validate(); err != nil {
		envelopeDomain.Zero(key)
		return nil, err
	}
	return sessionKey, nil
}

// ParsePublicKey parses an RSA public key in PEM (PKIX or PKCS#1) or OpenSSH
// authorized_keys form.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "ssh-rsa ") {
		return parseSSHPublicKey([]byte(trimmed))
	}

	block, _ := pem.Decode([]byte(trimmed))
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", envelopeDomain.ErrKeyFormat)
	}

	var pub *rsa.PublicKey
	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", envelopeDomain.ErrKeyFormat, err)
		}
		rsaKey, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA public key", envelopeDomain.ErrKeyFormat)
		}
		pub = rsaKey
	case "RSA PUBLIC KEY":
		parsed, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", envelopeDomain.ErrKeyFormat, err)
		}
		pub = parsed
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %q", envelopeDomain.ErrKeyFormat, block.Type)
	}

	return checkKeySize(pub)
}

func parseSSHPublicKey(data []byte) (*rsa.PublicKey, error) {
	parsed, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", envelopeDomain.ErrKeyFormat, err)
	}
	cryptoKey, ok := parsed.(ssh.CryptoPublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported SSH key", envelopeDomain.ErrKeyFormat)
	}
	pub, ok := cryptoKey.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", envelopeDomain.ErrKeyFormat)
	}
	return checkKeySize(pub)
}

// ParsePrivateKey parses a PEM encoded RSA private key in PKCS#1 or PKCS#8 form.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", envelopeDomain.ErrKeyFormat)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", envelopeDomain.ErrKeyFormat, err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", envelopeDomain.ErrKeyFormat, err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA private key", envelopeDomain.ErrKeyFormat)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %q", envelopeDomain.ErrKeyFormat, block.Type)
	}
}

// GenerateKeyPair creates an RSA key pair and returns it PEM encoded, the private key as
// PKCS#8 and the public key as PKIX.
func GenerateKeyPair(bits int) (privatePEM, publicPEM []byte, err error) {
	if bits < MinRSAKeyBits {
		return nil, nil, fmt.Errorf("%w: key size must be at least %d bits", envelopeDomain.ErrKeyFormat, MinRSAKeyBits)
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM, nil
}

func checkKeySize(pub *rsa.PublicKey) (*rsa.PublicKey, error) {
	if pub.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: RSA key must be at least %d bits", envelopeDomain.ErrKeyFormat, MinRSAKeyBits)
	}
	return pub, nil
}
