package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
	"github.com/allisson/msc/internal/envelope/usecase"
	usecaseMocks "github.com/allisson/msc/internal/envelope/usecase/mocks"
)

func newReplayGuard(t *testing.T) *envelopeService.ReplayGuard {
	t.Helper()
	masterKey, err := envelopeDomain.NewMasterKey(make([]byte, envelopeDomain.KeySize))
	require.NoError(t, err)
	guard, err := envelopeService.NewReplayGuard(masterKey, envelopeService.NewAEADManager(), envelopeDomain.AESGCM)
	require.NoError(t, err)
	return guard
}

func TestReplayUseCase_Verify(t *testing.T) {
	ctx := context.Background()
	guard := newReplayGuard(t)
	window := 5 * time.Minute

	t.Run("Success", func(t *testing.T) {
		repo := &usecaseMocks.MockReplayRepository{}
		uc := usecase.NewReplayUseCase(guard, repo, window)

		ts := envelopeDomain.NowMillis()
		sealed, err := guard.SealMetadata("req-1", ts)
		require.NoError(t, err)

		expiresAt := time.UnixMilli(ts).UTC().Add(window)
		repo.On("Remember", ctx, "req-1", ts, expiresAt).Return(nil).Once()

		tuple, err := uc.Verify(ctx, sealed)
		require.NoError(t, err)
		assert.Equal(t, "req-1", tuple.RequestID)
		repo.AssertExpectations(t)
	})

	t.Run("Error_Replay", func(t *testing.T) {
		repo := &usecaseMocks.MockReplayRepository{}
		uc := usecase.NewReplayUseCase(guard, repo, window)

		sealed, err := guard.SealMetadata("req-1", envelopeDomain.NowMillis())
		require.NoError(t, err)
		repo.On("Remember", ctx, "req-1", mock.Anything, mock.Anything).Return(envelopeDomain.ErrReplayDetected).Once()

		tuple, err := uc.Verify(ctx, sealed)
		assert.ErrorIs(t, err, envelopeDomain.ErrReplayDetected)
		assert.Nil(t, tuple)
	})

	t.Run("Error_Stale", func(t *testing.T) {
		repo := &usecaseMocks.MockReplayRepository{}
		uc := usecase.NewReplayUseCase(guard, repo, window)

		sealed, err := guard.SealMetadata("req-old", time.Now().Add(-10*time.Minute).UnixMilli())
		require.NoError(t, err)

		_, err = uc.Verify(ctx, sealed)
		assert.ErrorIs(t, err, envelopeDomain.ErrStaleRequest)
		repo.AssertNotCalled(t, "Remember", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_FromFuture", func(t *testing.T) {
		repo := &usecaseMocks.MockReplayRepository{}
		uc := usecase.NewReplayUseCase(guard, repo, window)

		sealed, err := guard.SealMetadata("req-future", time.Now().Add(10*time.Minute).UnixMilli())
		require.NoError(t, err)

		_, err = uc.Verify(ctx, sealed)
		assert.ErrorIs(t, err, envelopeDomain.ErrStaleRequest)
	})

	t.Run("Error_ForeignMetadata", func(t *testing.T) {
		repo := &usecaseMocks.MockReplayRepository{}
		uc := usecase.NewReplayUseCase(guard, repo, window)

		masterKey, err := envelopeDomain.NewMasterKey([]byte("0123456789abcdef0123456789abcdef"))
		require.NoError(t, err)
		foreign, err := envelopeService.NewReplayGuard(masterKey, envelopeService.NewAEADManager(), envelopeDomain.AESGCM)
		require.NoError(t, err)
		sealed, err := foreign.SealMetadata("req", envelopeDomain.NowMillis())
		require.NoError(t, err)

		_, err = uc.Verify(ctx, sealed)
		assert.ErrorIs(t, err, envelopeDomain.ErrAuthentication)
	})

	t.Run("Error_Malformed", func(t *testing.T) {
		repo := &usecaseMocks.MockReplayRepository{}
		uc := usecase.NewReplayUseCase(guard, repo, window)

		_, err := uc.Verify(ctx, "")
		assert.ErrorIs(t, err, envelopeDomain.ErrFormat)
	})
}

func TestReplayUseCase_Purge(t *testing.T) {
	ctx := context.Background()
	repo := &usecaseMocks.MockReplayRepository{}
	uc := usecase.NewReplayUseCase(newReplayGuard(t), repo, time.Minute)

	repo.On("Purge", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()

	n, err := uc.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	repo.AssertExpectations(t)
}
