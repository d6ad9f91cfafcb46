package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/codered-bot-go/internal/ctxutil"
	"github.com/garyellow/codered-bot-go/internal/logger"
	"github.com/garyellow/codered-bot-go/internal/telemetry"
)

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// readinessCheck reports ready once a provider is configured and Telegram
// polling is running.
func (a *Application) readinessCheck(c *gin.Context) {
	providers := []string{}
	if a.completer != nil {
		for _, p := range a.completer.Providers() {
			providers = append(providers, p.String())
		}
	}
	polling := a.telegram != nil && a.telegram.Running()

	body := gin.H{
		"providers": providers,
		"telegram":  polling,
		"line":      a.lineHandler != nil,
	}

	var reason string
	switch {
	case len(providers) == 0:
		reason = "no completion provider"
	case !polling:
		reason = "telegram polling not running"
	}
	if reason != "" {
		a.logger.WithField("reason", reason).Debug("Readiness check failed")
		body["status"] = "not ready"
		body["reason"] = reason
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "ready"
	c.JSON(http.StatusOK, body)
}

func metricsHandler(registry *prometheus.Registry) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		Registry: registry,
	}))
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Next()
	}
}

// requestIDHeaders are checked in order for an upstream request ID.
var requestIDHeaders = []string{"X-Request-Id", "X-Correlation-Id"}

// loggingMiddleware tags the request with an ID and logs it once finished:
// 5xx at Error, other 4xx at Warn, everything else at Debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestID string
		for _, h := range requestIDHeaders {
			if requestID = c.GetHeader(h); requestID != "" {
				break
			}
		}
		if requestID == "" {
			requestID = telemetry.NewRequestID()
		}
		c.Header("X-Request-Id", requestID)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		status := c.Writer.Status()
		entry := log.WithRequestID(requestID).
			WithField("http_method", c.Request.Method).
			WithField("http_path", c.Request.URL.Path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds())

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("HTTP request failed")
		case status >= http.StatusBadRequest && status != http.StatusNotFound:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
