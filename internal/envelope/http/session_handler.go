package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/msc/internal/envelope/http/dto"
	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
	"github.com/allisson/msc/internal/httputil"
	customValidation "github.com/allisson/msc/internal/validation"
)

// SessionHandler handles HTTP requests for session issuance and revocation.
type SessionHandler struct {
	sessionUseCase envelopeUseCase.SessionUseCase
	logger         *slog.Logger
}

// NewSessionHandler creates a new session handler with required dependencies.
func NewSessionHandler(sessionUseCase envelopeUseCase.SessionUseCase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

// IssueHandler creates a session and returns its key wrapped under the client public key.
// POST /v1/sessions - Rate limited per IP.
// Returns 201 Created with session id, wrapped key and expiry.
func (h *SessionHandler) IssueHandler(c *gin.Context) {
	var req dto.IssueSessionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	session, err := h.sessionUseCase.Issue(c.Request.Context(), []byte(req.PublicKey))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapIssuedSessionToResponse(session))
}

// RevokeHandler forgets a session immediately.
// DELETE /v1/sessions/:id
// Returns 204 No Content.
func (h *SessionHandler) RevokeHandler(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.sessionUseCase.Revoke(c.Request.Context(), sessionID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseSessionID(c *gin.Context) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id format: %w", err)
	}
	return sessionID, nil
}
