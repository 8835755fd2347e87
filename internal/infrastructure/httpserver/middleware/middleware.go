package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/webutil/internal/core/ports"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Session   *SessionMiddleware
	Logging   *LoggingMiddleware
	RateLimit *RateLimitMiddleware
	Metrics   *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	sessions ports.SessionService,
	cookie SessionCookie,
	rateLimiter ports.RateLimiterService,
	trustProxy bool,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
	inFlight prometheus.Gauge,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		Session:   NewSessionMiddleware(sessions, cookie, logger),
		Logging:   NewLoggingMiddleware(logger),
		RateLimit: NewRateLimitMiddleware(rateLimiter, trustProxy, logger),
		Metrics:   NewMetricsMiddleware(requestsTotal, requestDuration, inFlight),
	}
}
