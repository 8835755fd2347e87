package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	config "github.com/avatarctic/webutil/configs"
	"github.com/avatarctic/webutil/internal/application/cache"
	"github.com/avatarctic/webutil/internal/application/services"
	"github.com/avatarctic/webutil/internal/core/ports"
	"github.com/avatarctic/webutil/internal/infrastructure/health"
	"github.com/avatarctic/webutil/internal/infrastructure/httpserver"
	"github.com/avatarctic/webutil/internal/infrastructure/logging"
	"github.com/avatarctic/webutil/internal/infrastructure/redis"
	"github.com/avatarctic/webutil/internal/infrastructure/repositories"
	"github.com/avatarctic/webutil/internal/infrastructure/store"
)

func main() {
	defaultPath := os.Getenv("WEBUTIL_CONFIG")
	if defaultPath == "" {
		defaultPath = "config.ini"
	}
	configPath := flag.String("config", defaultPath, "settings file (ini or yaml)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger, logFile, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal("Failed to set up logging:", err)
	}
	defer logFile.Close()

	logger.WithField("backend", cfg.Cache.Backend).Info("Starting webutil...")

	hcSlice := []ports.HealthChecker{}

	// Redis is only dialled when the cache lives there
	var redisClient *goredis.Client
	if cfg.Cache.Backend == config.BackendRedis {
		redisClient, err = redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis:", err)
		}
		defer redisClient.Close()
		hcSlice = append(hcSlice, health.NewRedisHealthChecker(redisClient))
		logger.Info("Connected to Redis successfully")
	}

	var rdb goredis.Cmdable
	if redisClient != nil {
		rdb = redisClient
	}
	blobStore, err := store.FromConfig(cfg.Cache, rdb)
	if err != nil {
		logger.Fatal("Failed to open cache store:", err)
	}
	hcSlice = append(hcSlice, health.NewStoreHealthChecker(blobStore))

	appCache, err := cache.Open(context.Background(), blobStore, cache.Options{
		Logger:  logger,
		Metrics: cache.NewMetrics(prometheus.DefaultRegisterer, "webutil"),
	})
	if err != nil {
		logger.Fatal("Failed to open cache:", err)
	}
	defer func() {
		if err := appCache.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close cache store")
		}
	}()
	if herr := appCache.HydrateErr(); herr != nil {
		logger.WithError(herr).Warn("Cache started empty")
	}

	sessionService := services.NewSessionService(appCache, cfg.Session.TTL, logger)

	var rateLimiter ports.RateLimiterService
	if cfg.RateLimit.RequestsPerWindow > 0 {
		var counters ports.RateLimitRepository = repositories.NewRateLimitCacheRepository(appCache)
		if redisClient != nil {
			counters = repositories.NewRateLimitRedisRepository(redisClient)
		}
		rateLimiter = services.NewRateLimiterService(counters, &services.RateLimiterConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			BurstMultiplier:   cfg.RateLimit.BurstMultiplier,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.RateLimit.KeyPrefix,
		}, logger)
		logger.WithField("requests", cfg.RateLimit.RequestsPerWindow).Info("Rate limiting enabled")
	}

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		IdleTimeout:   cfg.Server.IdleTimeout,
		TLSCertFile:   cfg.Server.TLSCertFile,
		TLSKeyFile:    cfg.Server.TLSKeyFile,
		SiteURL:       cfg.Site.URL,
		SiteRouter:    cfg.Site.Router,
		SessionCookie: cfg.Session.Cookie,

		TrustProxyHeaders: cfg.RateLimit.TrustProxy,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		Cache:          appCache,
		Sessions:       sessionService,
		HealthCheckers: hcSlice,
		RateLimiter:    rateLimiter,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
