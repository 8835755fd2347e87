package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avatarctic/webutil/internal/infrastructure/httpserver/helpers"
)

type requestInfoResponse struct {
	IP      string `json:"ip"`
	Path    string `json:"path"`
	Site    string `json:"site"`
	Base    string `json:"base"`
	Request string `json:"request_id,omitempty"`
}

// requestInfo reports how the server resolved the caller and the request path.
func (s *Server) requestInfo(c echo.Context) error {
	req := c.Request()
	return c.JSON(http.StatusOK, requestInfoResponse{
		IP:      helpers.ClientIP(req),
		Path:    helpers.RequestPath(req, s.config.SiteURL, s.config.SiteRouter),
		Site:    helpers.SiteURL(s.config.SiteURL, false),
		Base:    helpers.SiteURL(s.config.SiteURL, true),
		Request: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
