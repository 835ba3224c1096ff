package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"sos-backend/internal/api/routes"
	"sos-backend/internal/config"
	"sos-backend/internal/logging"
	"sos-backend/internal/realtime"
	"sos-backend/internal/repository/stores"
	"sos-backend/pkg/cache"
	"sos-backend/pkg/cleanup"
	"sos-backend/pkg/jwt"
	"sos-backend/pkg/metrics"
	"sos-backend/pkg/ratelimit"
	"sos-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := stores.Open(ctx, cfg.Store)
	if err != nil {
		logging.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("store close failed", "error", err)
		}
	}()
	slog.Info("store ready", "driver", cfg.Store.Driver)

	m := metrics.New()
	hub := realtime.NewHub(realtime.HubConfig{
		PingInterval: realtime.DefaultHubConfig().PingInterval,
		PongWait:     realtime.DefaultHubConfig().PongWait,
		OnDrop:       func(string) { m.RealtimeDropped.Inc() },
	})
	hub.SetCheckOrigin(originChecker(cfg.AllowedOrigins))
	hub.Start()
	defer hub.Stop()

	var wg sync.WaitGroup
	deps := routes.Dependencies{
		Config:   cfg,
		Store:    store,
		JWT:      jwt.NewJWTUtil(cfg.JWT),
		Hub:      hub,
		Notifier: hub,
		Metrics:  m,
	}

	var limiter ratelimit.RateLimiter
	if cfg.Redis.Enabled {
		// Initialize Redis client
		redisClient := redis.NewClient(cfg.Redis)
		defer redisClient.Close()

		healthStatus := redisClient.HealthCheck(ctx)
		if healthStatus.IsConnected {
			slog.Info("redis connected", "addr", healthStatus.ConnectionInfo)
		} else {
			slog.Warn("redis connection failed, will retry automatically", "error", healthStatus.Error)
		}

		deps.Redis = redisClient
		deps.Cache = cache.NewCacheManager(redisClient, cache.DefaultCacheConfig())
		limiter = ratelimit.NewRedisRateLimiter(redisClient.GetClient(), ratelimit.DefaultConfig())

		fanout := realtime.NewRedisFanout(redisClient.GetClient(), cfg.Redis.FanoutChannel, hub)
		deps.Notifier = fanout
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fanout.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("realtime fanout stopped", "error", err)
			}
		}()
	} else {
		limiter = ratelimit.NewMemoryRateLimiter(ratelimit.DefaultConfig())
	}
	defer limiter.Close()
	if cfg.RateLimit.Enabled {
		deps.Limiter = limiter
	}

	cleaner := cleanup.NewCleanupService(store.Locations(), cfg.Location.Retention, cfg.Location.CleanupInterval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleaner.Start(ctx)
	}()

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	cleaner.Stop()
	wg.Wait()
}

func corsConfig(origins []string) cors.Config {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Window", "X-RateLimit-Burst", "Retry-After"},
	}

	// Handle wildcard origin for development
	if slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	return corsConfig
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}
