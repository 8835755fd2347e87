package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/webutil/internal/infrastructure/httpserver/helpers"
)

type sessionValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type putSessionValueRequest struct {
	Value string `json:"value"`
}

func (s *Server) getSession(c echo.Context) error {
	id, err := helpers.GetSessionIDFromContext(c)
	if err != nil {
		return err
	}
	values, err := s.sessions.Values(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"new":    helpers.IsNewSession(c),
		"values": values,
	})
}

func (s *Server) destroySession(c echo.Context) error {
	id, err := helpers.GetSessionIDFromContext(c)
	if err != nil {
		return err
	}
	if err := s.sessions.Destroy(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to destroy session")
	}
	s.middleware.Session.Expire(c)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getSessionValue(c echo.Context) error {
	id, err := helpers.GetSessionIDFromContext(c)
	if err != nil {
		return err
	}
	name := c.Param("name")
	value, ok, err := s.sessions.Get(c.Request().Context(), id, name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session value not set")
	}
	return c.JSON(http.StatusOK, sessionValue{Name: name, Value: value})
}

func (s *Server) putSessionValue(c echo.Context) error {
	id, err := helpers.GetSessionIDFromContext(c)
	if err != nil {
		return err
	}
	var req putSessionValueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.sessions.Put(c.Request().Context(), id, c.Param("name"), req.Value); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to store session value")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteSessionValue(c echo.Context) error {
	id, err := helpers.GetSessionIDFromContext(c)
	if err != nil {
		return err
	}
	if err := s.sessions.Put(c.Request().Context(), id, c.Param("name"), ""); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "failed to unset session value")
	}
	return c.NoContent(http.StatusNoContent)
}
