// Package mocks provides testify mock implementations of the envelope use case interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	"github.com/allisson/msc/internal/envelope/usecase"
)

// MockReplayRepository is a mock implementation of ReplayRepository.
type MockReplayRepository struct {
	mock.Mock
}

// Remember mocks the Remember method of ReplayRepository.
func (m *MockReplayRepository) Remember(ctx context.Context, requestID string, timestamp int64, expiresAt time.Time) error {
	args := m.Called(ctx, requestID, timestamp, expiresAt)
	return args.Error(0)
}

// Purge mocks the Purge method of ReplayRepository.
func (m *MockReplayRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionUseCase is a mock implementation of SessionUseCase.
type MockSessionUseCase struct {
	mock.Mock
}

// Issue mocks the Issue method of SessionUseCase.
func (m *MockSessionUseCase) Issue(ctx context.Context, publicKeyPEM []byte) (*envelopeDomain.IssuedSession, error) {
	args := m.Called(ctx, publicKeyPEM)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.IssuedSession), args.Error(1)
}

// Revoke mocks the Revoke method of SessionUseCase.
func (m *MockSessionUseCase) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockChannelUseCase is a mock implementation of ChannelUseCase.
type MockChannelUseCase struct {
	mock.Mock
}

// Ticket mocks the Ticket method of ChannelUseCase.
func (m *MockChannelUseCase) Ticket(ctx context.Context, sessionID uuid.UUID) (*envelopeDomain.ReplayTicket, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.ReplayTicket), args.Error(1)
}

// Seal mocks the Seal method of ChannelUseCase.
func (m *MockChannelUseCase) Seal(
	ctx context.Context,
	sessionID uuid.UUID,
	requestID string,
	value any,
) (*envelopeDomain.SealedMessage, error) {
	args := m.Called(ctx, sessionID, requestID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.SealedMessage), args.Error(1)
}

// Open mocks the Open method of ChannelUseCase.
//
// A func(out any) in the third return slot is called with out so tests can fill it.
func (m *MockChannelUseCase) Open(
	ctx context.Context,
	sessionID uuid.UUID,
	envelope string,
	out any,
) (*envelopeDomain.Envelope, error) {
	args := m.Called(ctx, sessionID, envelope, out)
	if len(args) > 2 {
		if fill, ok := args.Get(2).(func(out any)); ok {
			fill(out)
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.Envelope), args.Error(1)
}

// Exchange mocks the Exchange method of ChannelUseCase.
func (m *MockChannelUseCase) Exchange(
	ctx context.Context,
	token string,
	sessionID uuid.UUID,
	envelope string,
	processor usecase.Processor,
) (*envelopeDomain.SealedMessage, error) {
	args := m.Called(ctx, token, sessionID, envelope, processor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.SealedMessage), args.Error(1)
}

// MockReplayUseCase is a mock implementation of ReplayUseCase.
type MockReplayUseCase struct {
	mock.Mock
}

// Verify mocks the Verify method of ReplayUseCase.
func (m *MockReplayUseCase) Verify(ctx context.Context, sealedMetadata string) (*envelopeDomain.ReplayTuple, error) {
	args := m.Called(ctx, sealedMetadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*envelopeDomain.ReplayTuple), args.Error(1)
}

// Purge mocks the Purge method of ReplayUseCase.
func (m *MockReplayUseCase) Purge(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
