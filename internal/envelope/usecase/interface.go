// Package usecase orchestrates the envelope core into session, channel and replay
// operations consumed by the HTTP layer and the CLI.
package usecase

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// Processor handles a decrypted request payload and returns the value to seal in the response.
type Processor func(ctx context.Context, payload json.RawMessage) (any, error)

// ReplayRepository records accepted request ids so a sealed metadata value is only honoured once.
type ReplayRepository interface {
	// Remember stores requestID until expiresAt. Returns ErrReplayDetected if it is already known.
	Remember(ctx context.Context, requestID string, timestamp int64, expiresAt time.Time) error
	// Purge deletes entries that expired before the given time and returns how many were removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// SessionStore holds live sessions in memory.
type SessionStore interface {
	Put(session *envelopeDomain.Session)
	Get(id uuid.UUID) (*envelopeDomain.Session, error)
	Delete(id uuid.UUID) error
}

// PayloadCodec seals structured values under a session key into envelopes whose request
// id and timestamp are authenticated along with the ciphertext.
type PayloadCodec interface {
	SealEnvelope(value any, key envelopeDomain.SessionKey, requestID string, timestamp int64) (string, error)
	OpenEnvelope(envelope string, key envelopeDomain.SessionKey, out any) (envelopeDomain.Envelope, error)
}

// KeyWrapper wraps session keys for a client public key.
type KeyWrapper interface {
	Wrap(sessionKey envelopeDomain.SessionKey, publicKey *rsa.PublicKey) (string, error)
}

// MetadataSealer seals and opens replay metadata under the master key.
type MetadataSealer interface {
	SealMetadata(requestID string, timestamp int64) (string, error)
	OpenMetadata(sealed string) (envelopeDomain.ReplayTuple, error)
}

// Authorizer checks bearer tokens.
type Authorizer interface {
	Authorize(token string) error
}

// SessionUseCase issues and revokes sessions.
type SessionUseCase interface {
	// Issue generates a session key and returns it wrapped under publicKeyPEM.
	Issue(ctx context.Context, publicKeyPEM []byte) (*envelopeDomain.IssuedSession, error)
	Revoke(ctx context.Context, sessionID uuid.UUID) error
}

// ChannelUseCase seals and opens envelopes for a session.
type ChannelUseCase interface {
	// Ticket issues fresh replay metadata for the session's next inbound envelope.
	Ticket(ctx context.Context, sessionID uuid.UUID) (*envelopeDomain.ReplayTicket, error)
	// Seal encrypts value into an envelope. A request id is generated when requestID is empty.
	Seal(ctx context.Context, sessionID uuid.UUID, requestID string, value any) (*envelopeDomain.SealedMessage, error)
	// Open unpacks and decrypts envelope into out.
	Open(ctx context.Context, sessionID uuid.UUID, envelope string, out any) (*envelopeDomain.Envelope, error)
	// Exchange authorizes token, opens envelope, runs processor and seals its result.
	// Nothing is decrypted when authorization fails.
	Exchange(
		ctx context.Context,
		token string,
		sessionID uuid.UUID,
		envelope string,
		processor Processor,
	) (*envelopeDomain.SealedMessage, error)
}

// ReplayUseCase verifies replay metadata.
type ReplayUseCase interface {
	// Verify opens sealed metadata, checks freshness and records the request id.
	Verify(ctx context.Context, sealedMetadata string) (*envelopeDomain.ReplayTuple, error)
	// Purge removes remembered request ids whose replay window has passed.
	Purge(ctx context.Context) (int64, error)
}
