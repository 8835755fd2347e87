package helpers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func GetSessionIDFromContext(c echo.Context) (string, error) {
	id, ok := GetSessionIDRaw(c)
	if !ok {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "session middleware not installed")
	}
	return id, nil
}
