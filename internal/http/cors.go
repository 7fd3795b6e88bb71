package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	envelopeHTTP "github.com/allisson/msc/internal/envelope/http"
)

// createCORSMiddleware returns nil unless CORS is enabled and at least one usable origin
// is configured. "*" allows any origin.
//
// Browser clients must be allowed to send X-Access-Token and X-Request-Metadata, so both
// are listed explicitly. Credentials are never allowed: the access token travels in a
// header, not a cookie.
func createCORSMiddleware(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins, rejected := parseOrigins(allowOrigins)
	for _, origin := range rejected {
		logger.Warn("ignoring invalid CORS origin", slog.String("origin", origin))
	}
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{
			"Content-Type",
			envelopeHTTP.AccessTokenHeader,
			envelopeHTTP.RequestMetadataHeader,
		},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))
	return cors.New(cfg)
}

// parseOrigins splits a comma separated list into origins cors.Config accepts
// (scheme://host[:port] or "*") and the entries it had to drop.
func parseOrigins(raw string) (origins, rejected []string) {
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimRight(strings.TrimSpace(part), "/")
		if origin == "" {
			continue
		}
		if origin == "*" || validOrigin(origin) {
			origins = append(origins, origin)
			continue
		}
		rejected = append(rejected, origin)
	}
	if len(origins) > 1 {
		for _, origin := range origins {
			if origin == "*" {
				return []string{"*"}, rejected
			}
		}
	}
	return origins, rejected
}

func validOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && u.Path == "" &&
		u.RawQuery == "" && u.Fragment == ""
}
