package helpers

import (
	"github.com/labstack/echo/v4"
)

type ctxKey string

const (
	keySessionID  ctxKey = "session_id"
	keySessionNew ctxKey = "session_new"
)

func SetSessionID(c echo.Context, id string, fresh bool) {
	c.Set(string(keySessionID), id)
	c.Set(string(keySessionNew), fresh)
}

func GetSessionIDRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keySessionID))
	id, ok := v.(string)
	return id, ok && id != ""
}

// IsNewSession reports whether the session cookie was issued by this request.
func IsNewSession(c echo.Context) bool {
	b, _ := c.Get(string(keySessionNew)).(bool)
	return b
}
