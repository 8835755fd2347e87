package helpers

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// DefaultCookieMaxAge is the lifetime of cookies set without an explicit max age.
const DefaultCookieMaxAge = 365 * 24 * time.Hour

// clientIPHeaders are consulted in order before falling back to RemoteAddr.
var clientIPHeaders = []string{
	"Client-Ip",
	"X-Forwarded-For",
	"X-Forwarded",
	"Forwarded-For",
	"Forwarded",
}

// ClientIP returns the client address for r: the first address named by a
// proxy header, else the host of RemoteAddr, else "0.0.0.0".
func ClientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		if v := r.Header.Get(h); v != "" {
			return firstAddress(v)
		}
	}
	return RemoteIP(r)
}

// RemoteIP returns the host of the connection's RemoteAddr, ignoring proxy
// headers a client can set itself, or "0.0.0.0" when it is unknown.
func RemoteIP(r *http.Request) string {
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "0.0.0.0"
}

// firstAddress picks the originating hop from a comma separated header,
// unwrapping the RFC 7239 for= form.
func firstAddress(v string) string {
	first := strings.TrimSpace(strings.Split(v, ",")[0])
	for _, part := range strings.Split(first, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "for=") {
			return strings.Trim(part[4:], `"[]`)
		}
	}
	return first
}

// Cookie returns the value of the named request cookie.
func Cookie(c echo.Context, name string) (string, bool) {
	ck, err := c.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// SetCookie sets a cookie on the response. A zero maxAge means
// DefaultCookieMaxAge, an empty path means "/", and an empty value expires
// the cookie.
func SetCookie(c echo.Context, name, value string, maxAge time.Duration, path string) {
	if maxAge == 0 {
		maxAge = DefaultCookieMaxAge
	}
	if path == "" {
		path = "/"
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
	} else {
		ck.MaxAge = int(maxAge / time.Second)
		ck.Expires = time.Now().Add(maxAge)
	}
	c.SetCookie(ck)
}

// SiteURL normalizes the configured site URL. With pathOnly it returns the
// URL path without a trailing slash; otherwise the URL with exactly one
// trailing slash. An empty rawURL yields "".
func SiteURL(rawURL string, pathOnly bool) string {
	if rawURL == "" {
		return ""
	}
	if pathOnly {
		u, err := url.Parse(rawURL)
		if err != nil {
			return ""
		}
		return strings.TrimRight(u.Path, "/")
	}
	return strings.TrimRight(rawURL, "/") + "/"
}

// RequestPath returns the request path relative to the site: the site base
// path and, when pages are served through a router script, the script name
// are stripped.
func RequestPath(r *http.Request, siteURL, router string) string {
	p := r.URL.Path
	if siteURL != "" {
		if base := SiteURL(siteURL, true); base != "" {
			p = strings.TrimPrefix(p, base)
		}
	}
	if root := strings.Trim(router, "/"); root != "" {
		rest := strings.TrimPrefix(p, "/")
		if len(rest) >= len(root) && strings.EqualFold(rest[:len(root)], root) {
			p = rest[len(root):]
		}
	}
	return p
}
