// Package http provides the HTTP server that exposes the envelope API.
package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/msc/internal/config"
	envelopeHTTP "github.com/allisson/msc/internal/envelope/http"
	envelopeUseCase "github.com/allisson/msc/internal/envelope/usecase"
	"github.com/allisson/msc/internal/metrics"
)

// Server is the API server.
type Server struct {
	*listener
	db     *sql.DB
	router *gin.Engine
}

// NewServer creates a new API server. db may be nil when no component uses a database.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		listener: newListener("http", host, port, logger),
		db:       db,
	}
}

// SetupRouter registers middleware and routes.
//
// ctx bounds the lifetime of background goroutines owned by middleware (rate limiter cleanup).
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	sessionHandler *envelopeHTTP.SessionHandler,
	channelHandler *envelopeHTTP.ChannelHandler,
	accessGate envelopeUseCase.Authorizer,
	replayUseCase envelopeUseCase.ReplayUseCase,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsProvider.Namespace()))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	replayMiddleware := envelopeHTTP.ReplayMiddleware(replayUseCase, s.logger)
	accessTokenMiddleware := envelopeHTTP.AccessTokenMiddleware(accessGate, s.logger)

	v1 := router.Group("/v1")
	{
		sessions := v1.Group("/sessions")
		{
			issue := []gin.HandlerFunc{}
			if cfg.RateLimitSessionEnabled {
				issue = append(issue, envelopeHTTP.IPRateLimitMiddleware(
					ctx,
					"session",
					cfg.RateLimitSessionRequestsPerSec,
					cfg.RateLimitSessionBurst,
					s.logger,
				))
			}
			issue = append(issue, sessionHandler.IssueHandler)
			sessions.POST("", issue...)

			// Every route on an issued session goes through the access gate. The limiter runs
			// first so rejected guesses never reach token verification.
			gated := []gin.HandlerFunc{}
			if cfg.RateLimitGateEnabled {
				gated = append(gated, envelopeHTTP.IPRateLimitMiddleware(
					ctx,
					"gate",
					cfg.RateLimitGateRequestsPerSec,
					cfg.RateLimitGateBurst,
					s.logger,
				))
			}
			gated = append(gated, accessTokenMiddleware)

			session := sessions.Group("/:id", gated...)
			session.DELETE("", sessionHandler.RevokeHandler)
			session.POST("/tickets", channelHandler.TicketHandler)
			session.POST("/seal", channelHandler.SealHandler)
			session.POST("/open", replayMiddleware, channelHandler.OpenHandler)
			session.POST("/exchange", replayMiddleware, channelHandler.ExchangeHandler)
		}
	}

	s.router = router
	s.server.Handler = router
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler pings the database when one is configured. Without a database the
// server keeps all state in memory and is always ready.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"components": gin.H{"database": "not_configured"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": "ok"},
	})
}
