package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

type channelUseCase struct {
	store      SessionStore
	codec      PayloadCodec
	sealer     MetadataSealer
	authorizer Authorizer
}

// Ticket seals a new request id and the current time under the master key.
func (c *channelUseCase) Ticket(ctx context.Context, sessionID uuid.UUID) (*envelopeDomain.ReplayTicket, error) {
	if _, err := c.store.Get(sessionID); err != nil {
		return nil, err
	}

	requestID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}
	timestamp := envelopeDomain.NowMillis()

	metadata, err := c.sealer.SealMetadata(requestID.String(), timestamp)
	if err != nil {
		return nil, err
	}

	return &envelopeDomain.ReplayTicket{
		RequestID: requestID.String(),
		Timestamp: timestamp,
		Metadata:  metadata,
	}, nil
}

// Seal encrypts value under the session key and packs it with fresh replay metadata.
func (c *channelUseCase) Seal(
	ctx context.Context,
	sessionID uuid.UUID,
	requestID string,
	value any,
) (*envelopeDomain.SealedMessage, error) {
	session, err := c.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return c.seal(session, requestID, value)
}

// Open decrypts envelope into out. out is untouched unless the tag verifies.
func (c *channelUseCase) Open(
	ctx context.Context,
	sessionID uuid.UUID,
	envelope string,
	out any,
) (*envelopeDomain.Envelope, error) {
	session, err := c.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return c.open(session, envelope, out)
}

// Exchange runs the full request cycle: authorize, decrypt, process, encrypt.
//
// The response reuses the request id of the inbound envelope so clients can correlate.
func (c *channelUseCase) Exchange(
	ctx context.Context,
	token string,
	sessionID uuid.UUID,
	envelope string,
	processor Processor,
) (*envelopeDomain.SealedMessage, error) {
	if err := c.authorizer.Authorize(token); err != nil {
		return nil, err
	}

	session, err := c.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var payload json.RawMessage
	env, err := c.open(session, envelope, &payload)
	if err != nil {
		return nil, err
	}

	result, err := processor(ctx, payload)
	if err != nil {
		return nil, err
	}

	return c.seal(session, env.RequestID, result)
}

func (c *channelUseCase) open(session *envelopeDomain.Session, envelope string, out any) (*envelopeDomain.Envelope, error) {
	env, err := c.codec.OpenEnvelope(envelope, session.Key, out)
	if err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *channelUseCase) seal(
	session *envelopeDomain.Session,
	requestID string,
	value any,
) (*envelopeDomain.SealedMessage, error) {
	if requestID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate request id: %w", err)
		}
		requestID = id.String()
	}
	timestamp := envelopeDomain.NowMillis()

	envelope, err := c.codec.SealEnvelope(value, session.Key, requestID, timestamp)
	if err != nil {
		return nil, err
	}

	metadata, err := c.sealer.SealMetadata(requestID, timestamp)
	if err != nil {
		return nil, err
	}

	return &envelopeDomain.SealedMessage{
		Envelope:  envelope,
		Metadata:  metadata,
		RequestID: requestID,
		Timestamp: timestamp,
	}, nil
}

// NewChannelUseCase creates a ChannelUseCase.
func NewChannelUseCase(
	store SessionStore,
	codec PayloadCodec,
	sealer MetadataSealer,
	authorizer Authorizer,
) ChannelUseCase {
	return &channelUseCase{
		store:      store,
		codec:      codec,
		sealer:     sealer,
		authorizer: authorizer,
	}
}
