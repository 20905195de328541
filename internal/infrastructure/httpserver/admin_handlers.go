package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type clearCacheRequest struct {
	Key     string `json:"key"`
	Pattern string `json:"pattern"`
}

type resetRateLimitRequest struct {
	Identifier string `json:"identifier"`
	Prefix     string `json:"prefix"`
}

// clearCache deletes a single cache key. Pattern-based clearing is accepted
// in the request shape but intentionally unimplemented.
func (s *Server) clearCache(c echo.Context) error {
	var req clearCacheRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	switch {
	case req.Key != "":
		s.cache.Del(c.Request().Context(), req.Key)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "cache key deleted",
		})
	case req.Pattern != "":
		return c.JSON(http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "pattern-based clearing not implemented",
		})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "key or pattern required")
	}
}

func (s *Server) cacheStats(c echo.Context) error {
	stats, err := s.cache.Stats(c.Request().Context())
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to collect cache stats")
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":     "failed to collect cache stats",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"cache":     stats,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) sessionStats(c echo.Context) error {
	stats, err := s.sessions.Stats(c.Request().Context())
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("failed to collect session stats")
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":     "failed to collect session stats",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions":  stats,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// terminateSession force-signs-out a single device session.
func (s *Server) terminateSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id required")
	}
	if err := s.sessions.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to terminate session")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}

// terminateUserSessions implements "sign out everywhere" for a user; an
// optional ?except=<session-id> keeps the current device signed in.
func (s *Server) terminateUserSessions(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id required")
	}
	deleted, err := s.sessions.DeleteAllUserSessions(c.Request().Context(), userID, c.QueryParam("except"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to terminate user sessions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "deleted": deleted})
}

func (s *Server) resetRateLimit(c echo.Context) error {
	var req resetRateLimitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Identifier == "" || req.Prefix == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "identifier and prefix required")
	}
	if err := s.limiter.ResetLimit(c.Request().Context(), req.Identifier, req.Prefix); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to reset rate limit")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
