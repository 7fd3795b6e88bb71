package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"sync/atomic"

	"github.com/allisson/go-pwdhash"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// AccessGate decides whether a presented bearer token matches the server access token.
//
// Tokens are compared as SHA-256 digests with subtle.ConstantTimeCompare so neither the
// position of the first mismatch nor the token length leaks through timing. When built
// from a hash the comparison is delegated to go-pwdhash, which is also constant time.
type AccessGate struct {
	digest []byte
	hash   string
	hasher *pwdhash.PasswordHasher

	// verified holds the digest of the last token go-pwdhash accepted, so a request
	// checked by both the middleware and the use case pays for argon2id once.
	verified atomic.Pointer[[sha256.Size]byte]
}

// NewAccessGate creates a gate for a plain expected token.
func NewAccessGate(expected string) *AccessGate {
	sum := tokenDigest(expected)
	return &AccessGate{digest: sum[:]}
}

// NewHashedAccessGate creates a gate for a token stored as a go-pwdhash encoded hash.
func NewHashedAccessGate(hash string) (*AccessGate, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return nil, err
	}
	return &AccessGate{hash: hash, hasher: hasher}, nil
}

// IsAuthorized reports whether token matches. An empty token is never authorized.
func (g *AccessGate) IsAuthorized(token string) bool {
	if token == "" {
		return false
	}

	sum := tokenDigest(token)

	if g.hasher == nil {
		return subtle.ConstantTimeCompare(sum[:], g.digest) == 1
	}

	if known := g.verified.Load(); known != nil && subtle.ConstantTimeCompare(sum[:], known[:]) == 1 {
		return true
	}

	ok, err := g.hasher.Verify([]byte(token), g.hash)
	if err != nil || !ok {
		return false
	}
	g.verified.Store(&sum)
	return true
}

// Authorize returns ErrAuthorization unless token matches.
func (g *AccessGate) Authorize(token string) error {
	if !g.IsAuthorized(token) {
		return envelopeDomain.ErrAuthorization
	}
	return nil
}

// HashAccessToken hashes token with go-pwdhash for use as ACCESS_TOKEN_HASH.
func HashAccessToken(token string) (string, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyModerate))
	if err != nil {
		return "", err
	}
	return hasher.Hash([]byte(token))
}

// tokenDigest maps a token of any length to a fixed-size value for constant-time comparison.
func tokenDigest(token string) [sha256.Size]byte {
	return sha256.Sum256([]byte(token))
}
