package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

func newMasterKey(t *testing.T, fill byte) *envelopeDomain.MasterKey {
	t.Helper()
	raw := make([]byte, envelopeDomain.KeySize)
	for i := range raw {
		raw[i] = fill
	}
	key, err := envelopeDomain.NewMasterKey(raw)
	require.NoError(t, err)
	return key
}

func TestNewReplayGuard(t *testing.T) {
	_, err := NewReplayGuard(nil, NewAEADManager(), envelopeDomain.AESGCM)
	assert.ErrorIs(t, err, envelopeDomain.ErrConfiguration)
}

func TestReplayGuard_SealOpen(t *testing.T) {
	guard, err := NewReplayGuard(newMasterKey(t, 0x42), NewAEADManager(), envelopeDomain.AESGCM)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := guard.SealMetadata("req-123", 1700000000000)
		require.NoError(t, err)
		assert.Len(t, strings.Split(sealed, ":"), 3)
		assert.NotContains(t, sealed, "req-123")

		tuple, err := guard.OpenMetadata(sealed)
		require.NoError(t, err)
		assert.Equal(t, envelopeDomain.ReplayTuple{RequestID: "req-123", Timestamp: 1700000000000}, tuple)
	})

	t.Run("sealing is randomized", func(t *testing.T) {
		first, err := guard.SealMetadata("req", 1)
		require.NoError(t, err)
		second, err := guard.SealMetadata("req", 1)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("empty request id", func(t *testing.T) {
		_, err := guard.SealMetadata("", 1)
		assert.ErrorIs(t, err, envelopeDomain.ErrStructure)
	})

	t.Run("malformed metadata", func(t *testing.T) {
		_, err := guard.OpenMetadata("abc")
		assert.ErrorIs(t, err, envelopeDomain.ErrFormat)
	})

	t.Run("sealed by another master key", func(t *testing.T) {
		other, err := NewReplayGuard(newMasterKey(t, 0x43), NewAEADManager(), envelopeDomain.AESGCM)
		require.NoError(t, err)

		sealed, err := other.SealMetadata("req", 1)
		require.NoError(t, err)

		_, err = guard.OpenMetadata(sealed)
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthentication)
	})

	t.Run("master key is not used directly", func(t *testing.T) {
		codec := NewAEADCodec(NewAEADManager(), envelopeDomain.AESGCM)
		bundle, err := codec.Encrypt(envelopeDomain.ReplayTuple{RequestID: "req", Timestamp: 1}, envelopeDomain.SessionKey(newMasterKey(t, 0x42).Bytes()))
		require.NoError(t, err)

		_, err = guard.OpenMetadata(bundle.String())
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthentication)
	})
}
