package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sos-backend/internal/realtime"
	"sos-backend/internal/repository"
	"sos-backend/pkg/redis"
)

type HealthHandler struct {
	store       repository.Store
	redisClient *redis.Client
	hub         *realtime.Hub
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// NewHealthHandler builds the handler; redisClient and hub may be nil.
func NewHealthHandler(store repository.Store, redisClient *redis.Client, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{
		store:       store,
		redisClient: redisClient,
		hub:         hub,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now().UTC(),
		Services:  make(map[string]interface{}),
	}

	healthy := true

	storeStatus := h.checkStore(c.Request.Context())
	response.Services["store"] = storeStatus
	if !storeStatus["healthy"].(bool) {
		healthy = false
	}

	// Redis only backs caching, rate limiting and fan-out, so it does not
	// fail the check.
	if h.redisClient != nil {
		response.Services["redis"] = h.redisClient.HealthCheck(c.Request.Context())
	}

	if h.hub != nil {
		response.Services["realtime"] = h.hub.Stats()
	}

	if healthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkStore(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "store",
		"healthy": false,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		status["error"] = err.Error()
		return status
	}
	status["healthy"] = true
	status["responseTime"] = time.Since(start).String()
	return status
}
