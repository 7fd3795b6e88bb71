package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	"github.com/allisson/msc/internal/metrics"
)

const metricsDomain = "envelope"

func recordMetrics(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// sessionUseCaseWithMetrics decorates SessionUseCase with metrics instrumentation.
type sessionUseCaseWithMetrics struct {
	next    SessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSessionUseCaseWithMetrics wraps a SessionUseCase with metrics recording.
func NewSessionUseCaseWithMetrics(useCase SessionUseCase, m metrics.BusinessMetrics) SessionUseCase {
	return &sessionUseCaseWithMetrics{next: useCase, metrics: m}
}

func (s *sessionUseCaseWithMetrics) Issue(
	ctx context.Context,
	publicKeyPEM []byte,
) (*envelopeDomain.IssuedSession, error) {
	start := time.Now()
	session, err := s.next.Issue(ctx, publicKeyPEM)
	recordMetrics(ctx, s.metrics, "session_issue", start, err)
	return session, err
}

func (s *sessionUseCaseWithMetrics) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	start := time.Now()
	err := s.next.Revoke(ctx, sessionID)
	recordMetrics(ctx, s.metrics, "session_revoke", start, err)
	return err
}

// channelUseCaseWithMetrics decorates ChannelUseCase with metrics instrumentation.
type channelUseCaseWithMetrics struct {
	next    ChannelUseCase
	metrics metrics.BusinessMetrics
}

// NewChannelUseCaseWithMetrics wraps a ChannelUseCase with metrics recording.
func NewChannelUseCaseWithMetrics(useCase ChannelUseCase, m metrics.BusinessMetrics) ChannelUseCase {
	return &channelUseCaseWithMetrics{next: useCase, metrics: m}
}

func (c *channelUseCaseWithMetrics) Ticket(
	ctx context.Context,
	sessionID uuid.UUID,
) (*envelopeDomain.ReplayTicket, error) {
	start := time.Now()
	ticket, err := c.next.Ticket(ctx, sessionID)
	recordMetrics(ctx, c.metrics, "replay_ticket", start, err)
	return ticket, err
}

func (c *channelUseCaseWithMetrics) Seal(
	ctx context.Context,
	sessionID uuid.UUID,
	requestID string,
	value any,
) (*envelopeDomain.SealedMessage, error) {
	start := time.Now()
	msg, err := c.next.Seal(ctx, sessionID, requestID, value)
	recordMetrics(ctx, c.metrics, "envelope_seal", start, err)
	return msg, err
}

func (c *channelUseCaseWithMetrics) Open(
	ctx context.Context,
	sessionID uuid.UUID,
	envelope string,
	out any,
) (*envelopeDomain.Envelope, error) {
	start := time.Now()
	env, err := c.next.Open(ctx, sessionID, envelope, out)
	recordMetrics(ctx, c.metrics, "envelope_open", start, err)
	return env, err
}

func (c *channelUseCaseWithMetrics) Exchange(
	ctx context.Context,
	token string,
	sessionID uuid.UUID,
	envelope string,
	processor Processor,
) (*envelopeDomain.SealedMessage, error) {
	start := time.Now()
	msg, err := c.next.Exchange(ctx, token, sessionID, envelope, processor)
	recordMetrics(ctx, c.metrics, "envelope_exchange", start, err)
	return msg, err
}

// replayUseCaseWithMetrics decorates ReplayUseCase with metrics instrumentation.
type replayUseCaseWithMetrics struct {
	next    ReplayUseCase
	metrics metrics.BusinessMetrics
}

// NewReplayUseCaseWithMetrics wraps a ReplayUseCase with metrics recording.
func NewReplayUseCaseWithMetrics(useCase ReplayUseCase, m metrics.BusinessMetrics) ReplayUseCase {
	return &replayUseCaseWithMetrics{next: useCase, metrics: m}
}

func (r *replayUseCaseWithMetrics) Verify(
	ctx context.Context,
	sealedMetadata string,
) (*envelopeDomain.ReplayTuple, error) {
	start := time.Now()
	tuple, err := r.next.Verify(ctx, sealedMetadata)
	recordMetrics(ctx, r.metrics, "replay_verify", start, err)
	return tuple, err
}

func (r *replayUseCaseWithMetrics) Purge(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := r.next.Purge(ctx)
	recordMetrics(ctx, r.metrics, "replay_purge", start, err)
	return n, err
}
