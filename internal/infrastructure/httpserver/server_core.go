package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/webutil/internal/core/ports"
	customMiddleware "github.com/avatarctic/webutil/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string

	// SiteURL and SiteRouter are used to compute request paths relative to the site.
	SiteURL    string
	SiteRouter string

	SessionCookie string
	SessionMaxAge time.Duration

	// MaxValueBytes bounds PUT bodies on the cache API. Zero means 1 MiB.
	MaxValueBytes int64
	// DefaultTTL applies to cache PUTs without a ttl query parameter.
	DefaultTTL time.Duration
	// TrustProxyHeaders makes the rate limiter key on Client-Ip and
	// X-Forwarded-For. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

type ServerDeps struct {
	Cache          ports.Cache
	Sessions       ports.SessionService
	HealthCheckers []ports.HealthChecker
	// RateLimiter guards /api/v1 when set.
	RateLimiter ports.RateLimiterService
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	cache          ports.Cache
	sessions       ports.SessionService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if serverConfig.MaxValueBytes <= 0 {
		serverConfig.MaxValueBytes = 1 << 20
	}
	if serverConfig.DefaultTTL == 0 {
		serverConfig.DefaultTTL = defaultCacheTTL
	}

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		cache:          deps.Cache,
		sessions:       deps.Sessions,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.Sessions,
			customMiddleware.SessionCookie{
				Name:   serverConfig.SessionCookie,
				MaxAge: serverConfig.SessionMaxAge,
				Path:   sessionCookiePath(serverConfig.SiteURL),
			},
			deps.RateLimiter,
			serverConfig.TrustProxyHeaders,
			logger,
			GetRequestsTotal(),
			GetRequestDuration(),
			GetRequestsInFlight(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
