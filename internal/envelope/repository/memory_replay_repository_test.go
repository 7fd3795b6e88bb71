package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

func TestMemoryReplayRepository_Remember(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReplayRepository()
	expiresAt := time.Now().Add(time.Minute)

	require.NoError(t, repo.Remember(ctx, "req-1", 1, expiresAt))
	assert.ErrorIs(t, repo.Remember(ctx, "req-1", 1, expiresAt), envelopeDomain.ErrReplayDetected)
	assert.NoError(t, repo.Remember(ctx, "req-2", 1, expiresAt))
}

func TestMemoryReplayRepository_ExpiredEntryIsReusable(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewMemoryReplayRepository()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Remember(ctx, "req-1", 1, now.Add(-time.Second)))
	assert.NoError(t, repo.Remember(ctx, "req-1", 1, now.Add(time.Minute)))
}

func TestMemoryReplayRepository_Purge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewMemoryReplayRepository()

	require.NoError(t, repo.Remember(ctx, "old-1", 1, now.Add(-time.Hour)))
	require.NoError(t, repo.Remember(ctx, "old-2", 1, now.Add(-time.Minute)))
	require.NoError(t, repo.Remember(ctx, "fresh", 1, now.Add(time.Hour)))

	removed, err := repo.Purge(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Len(t, repo.entries, 1)
}

func TestMemoryReplayRepository_ConcurrentRemember(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryReplayRepository()
	expiresAt := time.Now().Add(time.Minute)

	var accepted atomic.Int64
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.Remember(ctx, fmt.Sprintf("req-%d", i%10), 1, expiresAt) == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), accepted.Load())
}
