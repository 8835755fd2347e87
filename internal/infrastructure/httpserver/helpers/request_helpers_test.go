package helpers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/webutil/internal/infrastructure/httpserver/helpers"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "client-ip wins", headers: map[string]string{"Client-Ip": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, remote: "9.9.9.9:1", want: "1.1.1.1"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "2.2.2.2, 10.0.0.1"}, remote: "9.9.9.9:1", want: "2.2.2.2"},
		{name: "x-forwarded", headers: map[string]string{"X-Forwarded": "3.3.3.3"}, want: "3.3.3.3"},
		{name: "forwarded-for", headers: map[string]string{"Forwarded-For": "4.4.4.4"}, want: "4.4.4.4"},
		{name: "rfc7239 forwarded", headers: map[string]string{"Forwarded": `for="[2001:db8::1]";proto=https`}, want: "2001:db8::1"},
		{name: "remote addr host", remote: "5.5.5.5:4321", want: "5.5.5.5"},
		{name: "remote addr without port", remote: "6.6.6.6", want: "6.6.6.6"},
		{name: "nothing known", want: "0.0.0.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, helpers.ClientIP(req))
		})
	}
}

func TestSetCookie_DefaultsAndExpiry(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	helpers.SetCookie(c, "theme", "dark", 0, "")
	helpers.SetCookie(c, "old", "", 0, "/app")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	require.Equal(t, "theme", cookies[0].Name)
	require.Equal(t, "dark", cookies[0].Value)
	require.Equal(t, "/", cookies[0].Path)
	require.Equal(t, int(helpers.DefaultCookieMaxAge/time.Second), cookies[0].MaxAge)

	require.Equal(t, "old", cookies[1].Name)
	require.Equal(t, "/app", cookies[1].Path)
	require.Equal(t, -1, cookies[1].MaxAge)
}

func TestCookie_ReadsRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lang", Value: "de"})
	c := e.NewContext(req, httptest.NewRecorder())

	v, ok := helpers.Cookie(c, "lang")
	require.True(t, ok)
	require.Equal(t, "de", v)

	_, ok = helpers.Cookie(c, "missing")
	require.False(t, ok)
}

func TestSiteURL(t *testing.T) {
	require.Equal(t, "", helpers.SiteURL("", false))
	require.Equal(t, "", helpers.SiteURL("", true))
	require.Equal(t, "https://example.com/shop/", helpers.SiteURL("https://example.com/shop", false))
	require.Equal(t, "https://example.com/shop/", helpers.SiteURL("https://example.com/shop///", false))
	require.Equal(t, "/shop", helpers.SiteURL("https://example.com/shop/", true))
	require.Equal(t, "", helpers.SiteURL("https://example.com", true))
}

func TestRequestPath(t *testing.T) {
	cases := []struct {
		name   string
		target string
		site   string
		router string
		want   string
	}{
		{name: "no site", target: "/a/b", want: "/a/b"},
		{name: "strips base path", target: "/shop/cart", site: "https://example.com/shop/", want: "/cart"},
		{name: "strips router", target: "/index.php/cart", router: "index.php", want: "/cart"},
		{name: "strips both", target: "/shop/index.php/cart", site: "https://example.com/shop", router: "/index.php", want: "/cart"},
		{name: "router match ignores case", target: "/Index.PHP/cart", router: "index.php", want: "/cart"},
		{name: "unrelated path kept", target: "/blog/post", site: "https://example.com/shop", want: "/blog/post"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			assert.Equal(t, tc.want, helpers.RequestPath(req, tc.site, tc.router))
		})
	}
}

func TestSessionIDContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := helpers.GetSessionIDFromContext(c)
	require.Error(t, err)

	helpers.SetSessionID(c, "abc", true)
	id, err := helpers.GetSessionIDFromContext(c)
	require.NoError(t, err)
	require.Equal(t, "abc", id)
	require.True(t, helpers.IsNewSession(c))
}

func TestRemoteIP_IgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.9:5555"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	require.Equal(t, "192.0.2.9", helpers.RemoteIP(req))
	require.Equal(t, "1.1.1.1", helpers.ClientIP(req))

	req.RemoteAddr = ""
	require.Equal(t, "0.0.0.0", helpers.RemoteIP(req))
}
