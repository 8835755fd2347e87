package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/avatarctic/webutil/internal/application/cache"
	"github.com/avatarctic/webutil/internal/application/services"
	"github.com/avatarctic/webutil/internal/core/ports"
	"github.com/avatarctic/webutil/internal/infrastructure/httpserver"
	"github.com/avatarctic/webutil/internal/infrastructure/logging"
	"github.com/avatarctic/webutil/internal/infrastructure/repositories"
	tmocks "github.com/avatarctic/webutil/test/mocks"
)

type checkerStub struct {
	name string
	err  error
}

func (c checkerStub) Name() string                    { return c.name }
func (c checkerStub) Check(ctx context.Context) error { return c.err }

type ServerSuite struct {
	suite.Suite
	store    *tmocks.MemoryStore
	cache    *cache.Cache
	checkers []ports.HealthChecker
	limiter  ports.RateLimiterService
	server   *httpserver.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.store = tmocks.NewMemoryStore(nil)
	c, err := cache.Open(context.Background(), s.store, cache.Options{})
	s.Require().NoError(err)
	s.cache = c
	s.checkers = []ports.HealthChecker{checkerStub{name: "store:memory"}}
	s.limiter = nil
	s.build(&httpserver.ServerConfig{SessionCookie: "SESSID"})
}

func (s *ServerSuite) build(cfg *httpserver.ServerConfig) {
	logger := logging.Discard()
	s.server = httpserver.NewServer(cfg, logger, httpserver.ServerDeps{
		Cache:          s.cache,
		Sessions:       services.NewSessionService(s.cache, time.Hour, logger),
		HealthCheckers: s.checkers,
		RateLimiter:    s.limiter,
	})
}

func (s *ServerSuite) do(method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	s.server.Echo().ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) TestCacheLifecycle() {
	rec := s.do(http.MethodPut, "/api/v1/cache/greeting?ttl=60", "hello")
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal(1, s.store.Writes)

	rec = s.do(http.MethodGet, "/api/v1/cache/greeting", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("hello", rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/v1/cache/greeting", "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/cache/greeting", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestCachePut_DefaultTTLAndEmptyBody() {
	rec := s.do(http.MethodPut, "/api/v1/cache/empty", "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/cache/empty", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(rec.Body.Bytes())
}

func (s *ServerSuite) TestCachePut_ZeroTTLRejectedWithoutWrite() {
	rec := s.do(http.MethodPut, "/api/v1/cache/k?ttl=0", "v")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(0, s.store.Writes)
}

func (s *ServerSuite) TestCachePut_HugeTTLRejectedAndValueKept() {
	rec := s.do(http.MethodPut, "/api/v1/cache/k?ttl=60", "v")
	s.Require().Equal(http.StatusNoContent, rec.Code)

	for _, ttl := range []string{"9223372037", "-9223372037", "99999999999999999999"} {
		rec = s.do(http.MethodPut, "/api/v1/cache/k?ttl="+ttl, "other")
		s.Equal(http.StatusBadRequest, rec.Code, ttl)
	}

	rec = s.do(http.MethodGet, "/api/v1/cache/k", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("v", rec.Body.String())
	s.Equal(1, s.store.Writes)
}

func (s *ServerSuite) TestCachePut_LargestTTLStores() {
	rec := s.do(http.MethodPut, "/api/v1/cache/k?ttl=9223372036", "v")
	s.Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/cache/k", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) TestCachePut_BadTTL() {
	rec := s.do(http.MethodPut, "/api/v1/cache/k?ttl=soon", "v")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) TestCachePut_TooLarge() {
	s.build(&httpserver.ServerConfig{MaxValueBytes: 4})
	rec := s.do(http.MethodPut, "/api/v1/cache/k", "too long")
	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
}

func (s *ServerSuite) TestCachePut_FlushFailureIsUnavailable() {
	s.store.Fail = errors.New("disk full")
	rec := s.do(http.MethodPut, "/api/v1/cache/k?ttl=5", "v")
	s.Equal(http.StatusServiceUnavailable, rec.Code)

	s.store.Fail = nil
	rec = s.do(http.MethodGet, "/api/v1/cache/k", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerSuite) TestSessionFlow() {
	rec := s.do(http.MethodGet, "/api/v1/session", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	sess := cookies[0]
	s.Equal("SESSID", sess.Name)
	withCookie := func(r *http.Request) { r.AddCookie(&http.Cookie{Name: sess.Name, Value: sess.Value}) }
	asJSON := func(r *http.Request) { r.Header.Set("Content-Type", "application/json") }

	rec = s.do(http.MethodPut, "/api/v1/session/user", `{"value":"ada"}`, withCookie, asJSON)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Empty(rec.Result().Cookies())

	rec = s.do(http.MethodGet, "/api/v1/session/user", "", withCookie)
	s.Require().Equal(http.StatusOK, rec.Code)
	var got map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(map[string]string{"name": "user", "value": "ada"}, got)

	rec = s.do(http.MethodGet, "/api/v1/session", "", withCookie)
	s.Contains(rec.Body.String(), `"new":false`)

	rec = s.do(http.MethodDelete, "/api/v1/session/user", "", withCookie)
	s.Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/session/user", "", withCookie)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(1, s.cache.Len(), "the emptied session stays active")
}

func (s *ServerSuite) TestSession_ClientChosenIDIsRotated() {
	chosen := "6f1c1e4a-3d7b-4b8e-9a55-2f0d8c1b7e21"
	withChosen := func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "SESSID", Value: chosen}) }
	asJSON := func(r *http.Request) { r.Header.Set("Content-Type", "application/json") }

	rec := s.do(http.MethodPut, "/api/v1/session/user", `{"value":"mallory"}`, withChosen, asJSON)
	s.Equal(http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.NotEqual(chosen, cookies[0].Value)

	_, ok := cacheGet(s, "session:"+chosen)
	s.False(ok)
}

func (s *ServerSuite) TestSession_MalformedCookieIsReplaced() {
	rec := s.do(http.MethodGet, "/api/v1/session", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "SESSID", Value: "../../etc"})
	})
	s.Equal(http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.NotEqual("../../etc", cookies[0].Value)
	s.Contains(rec.Body.String(), `"new":true`)
}

func (s *ServerSuite) TestSession_DestroyExpiresCookie() {
	rec := s.do(http.MethodGet, "/api/v1/session", "")
	sess := rec.Result().Cookies()[0]
	withCookie := func(r *http.Request) { r.AddCookie(sess) }

	rec = s.do(http.MethodDelete, "/api/v1/session", "", withCookie)
	s.Equal(http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(-1, cookies[0].MaxAge)
}

func cacheGet(s *ServerSuite, key string) ([]byte, bool) {
	v, ok, err := s.cache.Get(context.Background(), key)
	s.Require().NoError(err)
	return v, ok
}

func (s *ServerSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"store:memory":"healthy"`)
	s.Contains(rec.Body.String(), `"store":"memory"`)

	s.checkers = append(s.checkers, checkerStub{name: "redis", err: errors.New("refused")})
	s.build(&httpserver.ServerConfig{})
	rec = s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), `"status":"degraded"`)
	s.Contains(rec.Body.String(), `"redis":"unhealthy"`)
}

func (s *ServerSuite) TestRequestInfo() {
	s.build(&httpserver.ServerConfig{SiteURL: "https://example.com/app/", SiteRouter: "index.php"})
	rec := s.do(http.MethodGet, "/api/v1/request", "", func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	})
	s.Require().Equal(http.StatusOK, rec.Code)
	var got map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal("203.0.113.7", got["ip"])
	s.Equal("/api/v1/request", got["path"])
	s.Equal("https://example.com/app/", got["site"])
	s.Equal("/app", got["base"])
	s.NotEmpty(got["request_id"])
}

func (s *ServerSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/api/v1/cache/missing", "")
	rec := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `http_requests_total{endpoint="/api/v1/cache/:key",method="GET",status="404"}`)
}

func (s *ServerSuite) TestRateLimitPerClientIP() {
	s.limiter = services.NewRateLimiterService(
		repositories.NewRateLimitCacheRepository(s.cache),
		&services.RateLimiterConfig{RequestsPerWindow: 2, Window: time.Hour},
		nil,
	)
	s.build(&httpserver.ServerConfig{TrustProxyHeaders: true})
	from := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("Client-Ip", ip) }
	}

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/cache/a", "", from("192.0.2.1")).Code)
	rec := s.do(http.MethodGet, "/api/v1/cache/a", "", from("192.0.2.1"))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
	s.Equal(http.StatusTooManyRequests, s.do(http.MethodGet, "/api/v1/cache/a", "", from("192.0.2.1")).Code)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/cache/a", "", from("192.0.2.2")).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health", "", from("192.0.2.1")).Code)
}

func (s *ServerSuite) TestRateLimit_SpoofedHeaderDoesNotBypass() {
	s.limiter = services.NewRateLimiterService(
		repositories.NewRateLimitCacheRepository(s.cache),
		&services.RateLimiterConfig{RequestsPerWindow: 1, Window: time.Hour},
		nil,
	)
	s.build(&httpserver.ServerConfig{})
	spoof := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Forwarded-For", ip) }
	}

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/cache/a", "", spoof("203.0.113.1")).Code)
	s.Equal(http.StatusTooManyRequests, s.do(http.MethodGet, "/api/v1/cache/a", "", spoof("203.0.113.2")).Code)
}
