package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// SessionRegistry is the in-memory SessionStore.
//
// Session keys never leave process memory. Expired sessions are invisible to Get and are
// removed by Cleanup, which Run calls periodically.
type SessionRegistry struct {
	sessions sync.Map // map[uuid.UUID]*envelopeDomain.Session
	now      func() time.Time
}

// NewSessionRegistry creates an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{now: time.Now}
}

// Put stores session, replacing any session with the same id.
func (r *SessionRegistry) Put(session *envelopeDomain.Session) {
	r.sessions.Store(session.ID, session)
}

// Get returns the live session for id or ErrSessionNotFound.
func (r *SessionRegistry) Get(id uuid.UUID) (*envelopeDomain.Session, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, envelopeDomain.ErrSessionNotFound
	}

	session := val.(*envelopeDomain.Session)
	if session.IsExpired(r.now()) {
		r.evict(id, session)
		return nil, envelopeDomain.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes the session for id. Returns ErrSessionNotFound if absent.
func (r *SessionRegistry) Delete(id uuid.UUID) error {
	if _, ok := r.sessions.LoadAndDelete(id); !ok {
		return envelopeDomain.ErrSessionNotFound
	}
	return nil
}

// Cleanup removes every expired session and returns how many were removed.
func (r *SessionRegistry) Cleanup() int {
	now := r.now()
	removed := 0
	r.sessions.Range(func(key, value any) bool {
		session := value.(*envelopeDomain.Session)
		if session.IsExpired(now) && r.evict(key.(uuid.UUID), session) {
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (r *SessionRegistry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cleanup()
		}
	}
}

func (r *SessionRegistry) evict(id uuid.UUID, session *envelopeDomain.Session) bool {
	return r.sessions.CompareAndDelete(id, session)
}
