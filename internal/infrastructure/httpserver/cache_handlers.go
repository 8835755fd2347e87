package httpserver

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/webutil/internal/application/cache"
)

// defaultCacheTTL applies to PUTs without ?ttl=.
const defaultCacheTTL = 100 * time.Second

// maxTTLSeconds is the largest ttl that fits a time.Duration.
const maxTTLSeconds = math.MaxInt64 / int64(time.Second)

func (s *Server) getCacheValue(c echo.Context) error {
	key := c.Param("key")
	value, ok, err := s.cache.Get(c.Request().Context(), key)
	if err != nil {
		return cacheError(err)
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "key not found")
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, value)
}

func (s *Server) putCacheValue(c echo.Context) error {
	ttl := s.config.DefaultTTL
	if raw := c.QueryParam("ttl"); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "ttl must be an integer number of seconds")
		}
		if secs > maxTTLSeconds || secs < -maxTTLSeconds {
			return echo.NewHTTPError(http.StatusBadRequest, "ttl out of range")
		}
		ttl = time.Duration(secs) * time.Second
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, s.config.MaxValueBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "value too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	if err := s.cache.Set(c.Request().Context(), c.Param("key"), body, ttl); err != nil {
		return cacheError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteCacheValue(c echo.Context) error {
	if err := s.cache.Delete(c.Request().Context(), c.Param("key")); err != nil {
		return cacheError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func cacheError(err error) error {
	switch {
	case errors.Is(err, cache.ErrZeroTTL):
		return echo.NewHTTPError(http.StatusBadRequest, "ttl must be non-zero")
	case errors.Is(err, cache.ErrFlush), errors.Is(err, cache.ErrClosed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cache unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
