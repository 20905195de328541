package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health check handler: probes the backing store and reports status plus
// round-trip latency. The store being down degrades the service but does
// not stop it, so the handler reports rather than panics.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	health := s.store.HealthCheck(ctx)
	body := map[string]interface{}{
		"status":    health.Status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "artistly-platform",
	}
	if health.Error != "" {
		body["error"] = health.Error
		return c.JSON(http.StatusInternalServerError, body)
	}
	body["latency_ms"] = health.Latency.Milliseconds()
	return c.JSON(http.StatusOK, body)
}
