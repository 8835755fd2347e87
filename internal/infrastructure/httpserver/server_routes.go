package httpserver

import "github.com/avatarctic/webutil/internal/infrastructure/httpserver/helpers"

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1", s.middleware.RateLimit.Handler())
	api.GET("/request", s.requestInfo)

	if s.cache != nil {
		cache := api.Group("/cache")
		cache.GET("/:key", s.getCacheValue)
		cache.PUT("/:key", s.putCacheValue)
		cache.DELETE("/:key", s.deleteCacheValue)
	}

	if s.sessions != nil {
		session := api.Group("/session", s.middleware.Session.RequireSession())
		session.GET("", s.getSession)
		session.DELETE("", s.destroySession)
		session.GET("/:name", s.getSessionValue)
		session.PUT("/:name", s.putSessionValue)
		session.DELETE("/:name", s.deleteSessionValue)
	}
}

// sessionCookiePath scopes the session cookie to the site's base path.
func sessionCookiePath(siteURL string) string {
	if p := helpers.SiteURL(siteURL, true); p != "" {
		return p + "/"
	}
	return "/"
}
