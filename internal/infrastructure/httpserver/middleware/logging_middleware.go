package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/webutil/internal/infrastructure/httpserver/helpers"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// RequestLogging logs one line per request with the resolved client address.
func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.logger == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler fill in the status before we read it
				c.Error(err)
			}
			req := c.Request()
			fields := logrus.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"status":     c.Response().Status,
				"ip":         helpers.ClientIP(req),
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
				fields["request_id"] = id
			}
			entry := m.logger.WithFields(fields)
			switch {
			case c.Response().Status >= 500:
				entry.WithError(err).Error("request failed")
			case err != nil:
				entry.WithError(err).Info("request rejected")
			default:
				entry.Debug("request served")
			}
			return nil
		}
	}
}
