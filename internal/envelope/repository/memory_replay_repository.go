package repository

import (
	"context"
	"sync"
	"time"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// MemoryReplayRepository keeps replay nonces in process memory.
type MemoryReplayRepository struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryReplayRepository creates an empty MemoryReplayRepository.
func NewMemoryReplayRepository() *MemoryReplayRepository {
	return &MemoryReplayRepository{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Remember records requestID until expiresAt. An entry that has already expired does not
// count as a replay.
func (m *MemoryReplayRepository) Remember(
	ctx context.Context,
	requestID string,
	timestamp int64,
	expiresAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[requestID]; ok && m.now().Before(existing) {
		return envelopeDomain.ErrReplayDetected
	}
	m.entries[requestID] = expiresAt
	return nil
}

// Purge deletes entries that expired before the given time.
func (m *MemoryReplayRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for requestID, expiresAt := range m.entries {
		if expiresAt.Before(before) {
			delete(m.entries, requestID)
			removed++
		}
	}
	return removed, nil
}
