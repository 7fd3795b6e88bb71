package dto

import (
	"encoding/json"
	"time"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

// SessionResponse is returned when a session is issued.
type SessionResponse struct {
	SessionID  string    `json:"session_id"`
	WrappedKey string    `json:"wrapped_key"` // base64 RSA-OAEP ciphertext of the session key
	ExpiresAt  time.Time `json:"expires_at"`
}

// MapIssuedSessionToResponse converts an issued session to its response.
func MapIssuedSessionToResponse(session *envelopeDomain.IssuedSession) SessionResponse {
	return SessionResponse{
		SessionID:  session.ID.String(),
		WrappedKey: session.WrappedKey,
		ExpiresAt:  session.ExpiresAt,
	}
}

// SealedResponse carries an outbound envelope and its replay metadata.
type SealedResponse struct {
	Envelope  string `json:"envelope"`
	Metadata  string `json:"metadata"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
}

// MapSealedMessageToResponse converts a sealed message to its response.
func MapSealedMessageToResponse(msg *envelopeDomain.SealedMessage) SealedResponse {
	return SealedResponse{
		Envelope:  msg.Envelope,
		Metadata:  msg.Metadata,
		RequestID: msg.RequestID,
		Timestamp: msg.Timestamp,
	}
}

// OpenResponse carries the decrypted content of an envelope.
type OpenResponse struct {
	RequestID string          `json:"request_id"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// TicketResponse carries replay metadata for the client's next request.
type TicketResponse struct {
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Metadata  string `json:"metadata"`
}

// MapTicketToResponse converts a replay ticket to its response.
func MapTicketToResponse(ticket *envelopeDomain.ReplayTicket) TicketResponse {
	return TicketResponse{
		RequestID: ticket.RequestID,
		Timestamp: ticket.Timestamp,
		Metadata:  ticket.Metadata,
	}
}
