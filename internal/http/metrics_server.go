package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/msc/internal/metrics"
)

// MetricsServer serves /metrics on METRICS_PORT, away from the envelope API, plus a
// /health endpoint so the port can be checked on its own.
type MetricsServer struct {
	*listener
}

// NewMetricsServer creates a MetricsServer for provider.
func NewMetricsServer(
	host string,
	port int,
	logger *slog.Logger,
	provider *metrics.Provider,
) *MetricsServer {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	if provider != nil {
		router.GET("/metrics", gin.WrapH(provider.Handler()))
	}

	l := newListener("metrics", host, port, logger)
	l.server.Handler = router
	return &MetricsServer{listener: l}
}
