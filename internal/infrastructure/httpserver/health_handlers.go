package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// cacheStats is implemented by caches that can report their size.
type cacheStats interface {
	Len() int
	StoreName() string
}

type healthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
	Cache        *cacheHealth      `json:"cache,omitempty"`
}

type cacheHealth struct {
	Store   string `json:"store"`
	Entries int    `json:"entries"`
}

// healthCheck reports every dependency; any failure degrades the service.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Service:      "webutil",
		Dependencies: make(map[string]string),
	}
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		if err := hc.Check(ctx); err != nil {
			resp.Dependencies[hc.Name()] = "unhealthy"
			resp.Status = "degraded"
			if s.logger != nil {
				s.logger.WithField("dependency", hc.Name()).WithError(err).Warn("health check failed")
			}
			continue
		}
		resp.Dependencies[hc.Name()] = "healthy"
	}
	if st, ok := s.cache.(cacheStats); ok {
		resp.Cache = &cacheHealth{Store: st.StoreName(), Entries: st.Len()}
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}
