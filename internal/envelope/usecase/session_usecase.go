package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	envelopeService "github.com/allisson/msc/internal/envelope/service"
)

type sessionUseCase struct {
	store      SessionStore
	keyWrapper KeyWrapper
	ttl        time.Duration
}

// Issue parses the client public key, generates a fresh session key and returns it wrapped.
func (s *sessionUseCase) Issue(ctx context.Context, publicKeyPEM []byte) (*envelopeDomain.IssuedSession, error) {
	publicKey, err := envelopeService.ParsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, err
	}

	key, err := envelopeDomain.NewSessionKey()
	if err != nil {
		return nil, err
	}

	wrapped, err := s.keyWrapper.Wrap(key, publicKey)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now().UTC()
	session := &envelopeDomain.Session{
		ID:        id,
		Key:       key,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.store.Put(session)

	return &envelopeDomain.IssuedSession{
		ID:         session.ID,
		WrappedKey: wrapped,
		ExpiresAt:  session.ExpiresAt,
	}, nil
}

// Revoke forgets the session immediately.
func (s *sessionUseCase) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	return s.store.Delete(sessionID)
}

// NewSessionUseCase creates a SessionUseCase whose sessions live for ttl.
func NewSessionUseCase(store SessionStore, keyWrapper KeyWrapper, ttl time.Duration) SessionUseCase {
	return &sessionUseCase{
		store:      store,
		keyWrapper: keyWrapper,
		ttl:        ttl,
	}
}
