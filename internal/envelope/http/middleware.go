package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
	apperrors "github.com/allisson/msc/internal/errors"
	"github.com/allisson/msc/internal/httputil"
)

const (
	// AccessTokenHeader carries the bearer token checked by the access gate.
	AccessTokenHeader = "X-Access-Token"

	// RequestMetadataHeader carries the replay metadata sealed under the server master key.
	RequestMetadataHeader = "X-Request-Metadata"
)

var errMissingMetadata = apperrors.Coded(apperrors.ErrUnauthorized, "missing_metadata", "missing request metadata")

// AccessTokenMiddleware rejects requests whose X-Access-Token does not pass the gate.
//
// Runs before ReplayMiddleware so unauthorized requests never reach a decrypt operation.
func AccessTokenMiddleware(gate envelopeUseCase.Authorizer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := gate.Authorize(c.GetHeader(AccessTokenHeader)); err != nil {
			logger.Debug("access token rejected", slog.String("client_ip", c.ClientIP()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ReplayMiddleware verifies X-Request-Metadata and stores the replay tuple in the context.
//
// Returns:
//   - 401 Unauthorized: header missing or timestamp outside the replay window
//   - 409 Conflict: request id already accepted
//   - 422 Unprocessable Entity: metadata malformed or not sealed by this server
func ReplayMiddleware(replayUseCase envelopeUseCase.ReplayUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sealed := c.GetHeader(RequestMetadataHeader)
		if sealed == "" {
			httputil.HandleErrorGin(c, errMissingMetadata, logger)
			c.Abort()
			return
		}

		tuple, err := replayUseCase.Verify(c.Request.Context(), sealed)
		if err != nil {
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(WithReplayTuple(c.Request.Context(), tuple))
		c.Next()
	}
}
