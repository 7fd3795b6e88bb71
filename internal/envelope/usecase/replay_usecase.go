package usecase

import (
	"context"
	"time"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

type replayUseCase struct {
	sealer     MetadataSealer
	replayRepo ReplayRepository
	window     time.Duration
	now        func() time.Time
}

// Verify opens sealed metadata, rejects timestamps outside the window and remembers the
// request id until the window has passed so a second presentation fails.
func (r *replayUseCase) Verify(ctx context.Context, sealedMetadata string) (*envelopeDomain.ReplayTuple, error) {
	tuple, err := r.sealer.OpenMetadata(sealedMetadata)
	if err != nil {
		return nil, err
	}

	now := r.now()
	if !tuple.WithinWindow(now, r.window) {
		return nil, envelopeDomain.ErrStaleRequest
	}

	expiresAt := tuple.Time().Add(r.window)
	if err := r.replayRepo.Remember(ctx, tuple.RequestID, tuple.Timestamp, expiresAt); err != nil {
		return nil, err
	}
	return &tuple, nil
}

// Purge removes request ids whose replay window has closed.
func (r *replayUseCase) Purge(ctx context.Context) (int64, error) {
	return r.replayRepo.Purge(ctx, r.now())
}

// NewReplayUseCase creates a ReplayUseCase accepting timestamps within window of now.
func NewReplayUseCase(sealer MetadataSealer, replayRepo ReplayRepository, window time.Duration) ReplayUseCase {
	return &replayUseCase{
		sealer:     sealer,
		replayRepo: replayRepo,
		window:     window,
		now:        time.Now,
	}
}
