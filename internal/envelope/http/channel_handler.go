package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
	"github.com/allisson/msc/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
	"github.com/allisson/msc/internal/httputil"
	customValidation "github.com/allisson/msc/internal/validation"
)

// EchoProcessor returns the decrypted payload unchanged. It is the default exchange processor.
func EchoProcessor(_ context.Context, payload json.RawMessage) (any, error) {
	return payload, nil
}

// ChannelHandler handles HTTP requests that seal and open envelopes within a session.
type ChannelHandler struct {
	channelUseCase envelopeUseCase.ChannelUseCase
	processor      envelopeUseCase.Processor
	logger         *slog.Logger
}

// NewChannelHandler creates a new channel handler. processor handles exchange payloads.
func NewChannelHandler(
	channelUseCase envelopeUseCase.ChannelUseCase,
	processor envelopeUseCase.Processor,
	logger *slog.Logger,
) *ChannelHandler {
	return &ChannelHandler{
		channelUseCase: channelUseCase,
		processor:      processor,
		logger:         logger,
	}
}

// TicketHandler issues fresh replay metadata for the client's next request.
// POST /v1/sessions/:id/tickets
// Returns 201 Created with the request id and timestamp to put in the envelope.
func (h *ChannelHandler) TicketHandler(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	ticket, err := h.channelUseCase.Ticket(c.Request.Context(), sessionID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapTicketToResponse(ticket))
}

// SealHandler seals a JSON value into an envelope.
// POST /v1/sessions/:id/seal
// Returns 200 OK with the envelope and its replay metadata.
func (h *ChannelHandler) SealHandler(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.SealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	msg, err := h.channelUseCase.Seal(c.Request.Context(), sessionID, req.RequestID, req.Data)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSealedMessageToResponse(msg))
}

// OpenHandler decrypts an envelope.
// POST /v1/sessions/:id/open - Requires X-Request-Metadata (ReplayMiddleware).
// Returns 200 OK with the decrypted JSON value.
func (h *ChannelHandler) OpenHandler(c *gin.Context) {
	sessionID, req, ok := h.bindEnvelope(c)
	if !ok {
		return
	}

	var data json.RawMessage
	env, err := h.channelUseCase.Open(c.Request.Context(), sessionID, req.Envelope, &data)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.OpenResponse{
		RequestID: env.RequestID,
		Timestamp: env.Timestamp,
		Data:      data,
	})
}

// ExchangeHandler decrypts an envelope, runs the processor and seals the result.
// POST /v1/sessions/:id/exchange - Requires X-Access-Token and X-Request-Metadata.
// Returns 200 OK with the response envelope and its replay metadata.
func (h *ChannelHandler) ExchangeHandler(c *gin.Context) {
	sessionID, req, ok := h.bindEnvelope(c)
	if !ok {
		return
	}

	msg, err := h.channelUseCase.Exchange(
		c.Request.Context(),
		c.GetHeader(AccessTokenHeader),
		sessionID,
		req.Envelope,
		h.processor,
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSealedMessageToResponse(msg))
}

// bindEnvelope parses the session id and body, and checks that the verified replay tuple
// names the same request as the envelope. It writes the error response itself.
func (h *ChannelHandler) bindEnvelope(c *gin.Context) (sessionID uuid.UUID, req dto.EnvelopeRequest, ok bool) {
	id, err := parseSessionID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return sessionID, req, false
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return sessionID, req, false
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return sessionID, req, false
	}

	if tuple, found := GetReplayTuple(c.Request.Context()); found {
		env, err := envelopeDomain.Unpack(req.Envelope)
		if err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return sessionID, req, false
		}
		if env.RequestID != tuple.RequestID || env.Timestamp != tuple.Timestamp {
			httputil.HandleErrorGin(c, envelopeDomain.ErrMetadataMismatch, h.logger)
			return sessionID, req, false
		}
	}

	return id, req, true
}
