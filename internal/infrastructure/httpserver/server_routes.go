package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	admin := s.echo.Group("/admin")
	admin.Use(s.middleware.AdminJWT.RequireAdmin())

	admin.POST("/cache/clear", s.clearCache)
	admin.GET("/cache/stats", s.cacheStats)

	admin.GET("/sessions/stats", s.sessionStats)
	admin.DELETE("/sessions/:id", s.terminateSession)
	admin.DELETE("/users/:id/sessions", s.terminateUserSessions)

	admin.POST("/ratelimit/reset", s.resetRateLimit)
}
