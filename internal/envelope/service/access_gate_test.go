package service

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

func TestAccessGate_IsAuthorized(t *testing.T) {
	gate := NewAccessGate("s3cret-token")

	tests := []struct {
		name     string
		token    string
		expected bool
	}{
		{"exact match", "s3cret-token", true},
		{"different token", "other-token", false},
		{"prefix", "s3cret", false},
		{"longer", "s3cret-token!", false},
		{"case differs", "S3CRET-TOKEN", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gate.IsAuthorized(tt.token))
		})
	}
}

func TestAccessGate_Authorize(t *testing.T) {
	gate := NewAccessGate("s3cret-token")

	assert.NoError(t, gate.Authorize("s3cret-token"))
	assert.ErrorIs(t, gate.Authorize("nope"), envelopeDomain.ErrAuthorization)
}

func TestAccessGate_EmptyExpectedToken(t *testing.T) {
	gate := NewAccessGate("")
	assert.False(t, gate.IsAuthorized(""))
}

func TestHashedAccessGate(t *testing.T) {
	hash, err := HashAccessToken("s3cret-token")
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret-token")

	gate, err := NewHashedAccessGate(hash)
	require.NoError(t, err)

	assert.True(t, gate.IsAuthorized("s3cret-token"))
	assert.False(t, gate.IsAuthorized("wrong"))
	assert.False(t, gate.IsAuthorized(""))
	assert.ErrorIs(t, gate.Authorize("wrong"), envelopeDomain.ErrAuthorization)

	t.Run("malformed hash never authorizes", func(t *testing.T) {
		gate, err := NewHashedAccessGate("not-a-hash")
		require.NoError(t, err)
		assert.False(t, gate.IsAuthorized("s3cret-token"))
	})
}

func TestAccessGate_ComparesFixedLengthDigests(t *testing.T) {
	expected := "s3cret-token"
	gate := NewAccessGate(expected)
	require.Len(t, gate.digest, sha256.Size)

	// Whatever the token length or mismatch position, the compared values are the same size.
	for _, token := range []string{"x", "Xs3cret-token", "s3cret-tokeX", strings.Repeat("s", 4096)} {
		sum := tokenDigest(token)
		assert.Len(t, sum[:], len(gate.digest), token)
		assert.False(t, gate.IsAuthorized(token), token)
	}
}

func TestAccessGate_NearMatchRejectedLikeEarlyMismatch(t *testing.T) {
	expected := strings.Repeat("a", 63) + "b"
	gate := NewAccessGate(expected)

	early := "X" + expected[1:]
	near := expected[:len(expected)-1] + "X"

	assert.False(t, gate.IsAuthorized(early))
	assert.False(t, gate.IsAuthorized(near))
	assert.ErrorIs(t, gate.Authorize(early), envelopeDomain.ErrAuthorization)
	assert.ErrorIs(t, gate.Authorize(near), envelopeDomain.ErrAuthorization)
}

func TestHashedAccessGate_RemembersVerifiedToken(t *testing.T) {
	hash, err := HashAccessToken("s3cret-token")
	require.NoError(t, err)
	gate, err := NewHashedAccessGate(hash)
	require.NoError(t, err)

	assert.False(t, gate.IsAuthorized("wrong"))
	assert.Nil(t, gate.verified.Load(), "a rejected token is never remembered")

	require.True(t, gate.IsAuthorized("s3cret-token"))
	require.NotNil(t, gate.verified.Load())

	// With the hash unusable only the remembered digest can authorize.
	gate.hash = "not-a-hash"
	assert.True(t, gate.IsAuthorized("s3cret-token"))
	assert.False(t, gate.IsAuthorized("s3cret-tokeX"))
	assert.False(t, gate.IsAuthorized(""))
}

func BenchmarkAccessGate_Mismatch(b *testing.B) {
	expected := strings.Repeat("a", 63) + "b"
	gate := NewAccessGate(expected)

	cases := []struct {
		name  string
		token string
	}{
		{"early", "X" + expected[1:]},
		{"near", expected[:len(expected)-1] + "X"},
		{"short", "a"},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if gate.IsAuthorized(tc.token) {
					b.Fatal("mismatch authorized")
				}
			}
		})
	}
}
