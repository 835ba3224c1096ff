package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sos-backend/pkg/ratelimit"
)

// RateLimitMiddleware limits each client per route category. Authenticated
// callers are keyed by identity, guests by IP. A failing limiter lets the
// request through.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, config *ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/v1/health" && gin.Mode() == gin.DebugMode {
			c.Next()
			return
		}

		clientID := getClientID(c)
		category := config.GetEndpointKey(routeOf(c), c.Request.Method)

		allowed, resetTime, err := limiter.Allow(c.Request.Context(), clientID, category)
		if err != nil {
			slog.Warn("rate limiter unavailable", "category", category, "error", err)
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		setRateLimitHeaders(c, limiter.Limit(category), allowed, resetTime)

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    fmt.Sprintf("Too many requests. Try again in %v", resetTime.Round(time.Second)),
				"error":      "RATE_LIMIT_EXCEEDED",
				"retryAfter": int(resetTime.Seconds()),
			})
			return
		}

		c.Next()
	}
}

func getClientID(c *gin.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.RecipientID()
	}
	return "ip:" + c.ClientIP()
}

// routeOf prefers the matched route pattern so ids do not create new buckets.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

// setRateLimitHeaders sets standard rate limiting headers
func setRateLimitHeaders(c *gin.Context, limit ratelimit.RateLimit, allowed bool, resetTime time.Duration) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit.RequestsPerMinute))
	c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.WindowSize.Seconds())))
	c.Header("X-RateLimit-Burst", strconv.Itoa(limit.BurstSize))

	if !allowed {
		retry := int(resetTime.Seconds())
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetTime).Unix(), 10))
	}
}
