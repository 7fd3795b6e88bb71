package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session binds a SessionKey to an identifier for the lifetime of a client connection.
//
// Sessions live only in process memory; the key is never persisted.
type Session struct {
	ID        uuid.UUID
	Key       SessionKey
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IssuedSession is returned to a client when a session is created. It never carries the
// raw session key, only the key wrapped under the client's public key.
type IssuedSession struct {
	ID         uuid.UUID
	WrappedKey string
	ExpiresAt  time.Time
}
