package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/webutil/internal/application/services"
	"github.com/avatarctic/webutil/internal/core/ports"
	"github.com/avatarctic/webutil/internal/infrastructure/httpserver/helpers"
)

// SessionCookie describes the cookie carrying the session ID.
type SessionCookie struct {
	Name   string
	MaxAge time.Duration
	Path   string
}

type SessionMiddleware struct {
	sessions ports.SessionService
	cookie   SessionCookie
	logger   *logrus.Logger
}

func NewSessionMiddleware(sessions ports.SessionService, cookie SessionCookie, logger *logrus.Logger) *SessionMiddleware {
	if cookie.Name == "" {
		cookie.Name = "SESSID"
	}
	return &SessionMiddleware{sessions: sessions, cookie: cookie, logger: logger}
}

// RequireSession resolves the session ID from the cookie. A missing cookie,
// or one naming a session this server has not issued or no longer holds,
// gets a fresh session and cookie.
func (m *SessionMiddleware) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if id, ok := helpers.Cookie(c, m.cookie.Name); ok {
				if _, err := m.sessions.Values(ctx, id); err == nil {
					helpers.SetSessionID(c, id, false)
					return next(c)
				} else if !errors.Is(err, services.ErrInvalidSession) {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
				}
				if m.logger != nil {
					m.logger.WithField("ip", helpers.ClientIP(c.Request())).Debug("discarding unknown session cookie")
				}
			}
			id, err := m.sessions.Start(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
			}
			helpers.SetCookie(c, m.cookie.Name, id, m.cookie.MaxAge, m.cookie.Path)
			helpers.SetSessionID(c, id, true)
			return next(c)
		}
	}
}

// CookieName is the name of the session cookie.
func (m *SessionMiddleware) CookieName() string { return m.cookie.Name }

// Expire clears the session cookie on the response.
func (m *SessionMiddleware) Expire(c echo.Context) {
	helpers.SetCookie(c, m.cookie.Name, "", 0, m.cookie.Path)
}
