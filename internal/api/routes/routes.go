package routes

import (
	"github.com/gin-gonic/gin"

	"sos-backend/internal/api/handlers"
	"sos-backend/internal/api/middleware"
	"sos-backend/internal/config"
	"sos-backend/internal/models"
	"sos-backend/internal/realtime"
	"sos-backend/internal/repository"
	"sos-backend/internal/services"
	"sos-backend/pkg/cache"
	"sos-backend/pkg/classifier"
	"sos-backend/pkg/jwt"
	"sos-backend/pkg/metrics"
	"sos-backend/pkg/ratelimit"
	"sos-backend/pkg/redis"
)

// Dependencies are the process-wide collaborators the routes are built on.
// Notifier defaults to Hub; Cache, Redis, Limiter and Metrics are optional.
type Dependencies struct {
	Config   *config.Config
	Store    repository.Store
	JWT      *jwt.JWTUtil
	Hub      *realtime.Hub
	Notifier realtime.Notifier
	Cache    cache.CacheManager
	Redis    *redis.Client
	Limiter  ratelimit.RateLimiter
	Metrics  *metrics.Metrics
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	notifier := deps.Notifier
	if notifier == nil {
		notifier = deps.Hub
	}

	// Initialize services
	directory := services.NewVolunteerDirectory(deps.Store.Volunteers())
	if deps.Cache != nil {
		directory.SetCache(deps.Cache, cfg.DirectoryCacheTTL)
	}
	matcher := services.NewVolunteerMatcher(cfg.Matching)

	alertService := services.NewAlertService(deps.Store, directory, matcher)
	alertService.SetNotifier(notifier)
	if deps.Metrics != nil {
		alertService.SetMetrics(deps.Metrics)
	}

	volunteerService := services.NewVolunteerService(deps.Store, directory, matcher, services.VolunteerOptions{
		DefaultVerified: cfg.VolunteerDefaultVerified,
		MinMoveMeters:   cfg.Location.MinMoveMeters,
	})
	authService := services.NewAuthService(deps.Store, deps.JWT)
	reportService := services.NewReportService(deps.Store.Reports(), classifier.NewKeywordClassifier(), classifier.NewPanicClassifier())
	heatmapService := services.NewHeatmapService(deps.Store)
	locationService := services.NewLocationService(deps.Store)
	locationService.SetNotifier(notifier)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	alertHandler := handlers.NewAlertHandler(alertService)
	volunteerHandler := handlers.NewVolunteerHandler(volunteerService)
	reportHandler := handlers.NewReportHandler(reportService, heatmapService)
	locationHandler := handlers.NewLocationHandler(locationService)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.JWT)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Redis, deps.Hub)

	// Identity first so the limiter can key authenticated callers by subject.
	router.Use(middleware.Authenticate(deps.JWT))
	if deps.Limiter != nil {
		router.Use(middleware.RateLimitMiddleware(deps.Limiter, ratelimit.DefaultConfig()))
	}
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/ws", wsHandler.HandleWebSocket)

	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.HealthCheck)

	anyone := middleware.RequireIdentity()
	users := middleware.RequireIdentity(models.RoleUser)
	volunteers := middleware.RequireIdentity(models.RoleVolunteer)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
	}

	api.GET("/users/me", users, authHandler.Profile)

	alerts := api.Group("/alerts")
	{
		alerts.POST("/guest", alertHandler.CreateGuestAlert)
		alerts.POST("", users, alertHandler.CreateAlert)
		alerts.GET("", anyone, alertHandler.ListAlerts)
		alerts.GET("/:id", anyone, alertHandler.GetAlert)
		alerts.POST("/:id/resolve", anyone, alertHandler.ResolveAlert)
		alerts.POST("/:id/respond", volunteers, alertHandler.Respond)
		alerts.POST("/:id/accept", volunteers, alertHandler.Accept)
		alerts.POST("/:id/reject", volunteers, alertHandler.Reject)
		alerts.GET("/:id/accepted-count", anyone, alertHandler.AcceptedCount)
		alerts.GET("/:id/location", anyone, locationHandler.Trail)
	}

	vols := api.Group("/volunteers")
	{
		vols.POST("/signup", volunteerHandler.Signup)
		vols.GET("/nearby", anyone, volunteerHandler.Nearby)
		vols.PUT("/me/location", volunteers, volunteerHandler.UpdateLocation)
		vols.GET("/me/assignments", volunteers, volunteerHandler.Assignments)
	}

	api.POST("/location", anyone, locationHandler.Share)
	api.POST("/reports", reportHandler.CreateReport)
	api.GET("/heatmap", reportHandler.Heatmap)

	ai := api.Group("/ai")
	{
		ai.POST("/panic", reportHandler.ClassifyPanic)
		ai.POST("/report-risk", reportHandler.ClassifyRisk)
	}

	api.GET("/realtime/stats", anyone, wsHandler.Stats)
}
