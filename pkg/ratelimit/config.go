package ratelimit

import (
	"strings"
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Limits per category; "default" applies to unmapped routes.
	DefaultLimits map[string]RateLimit `json:"defaultLimits"`

	RedisKeyPrefix string `json:"redisKeyPrefix"`

	// CleanupInterval is how often idle in-memory buckets are dropped.
	CleanupInterval time.Duration `json:"cleanupInterval"`

	Enabled bool `json:"enabled"`
}

const DefaultCategory = "default"

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimits: map[string]RateLimit{
			// credential endpoints are the tightest
			"auth_login":  {RequestsPerMinute: 5, BurstSize: 3, WindowSize: time.Minute},
			"auth_signup": {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},

			// raising an alert must stay possible under repeated presses
			"alerts_create": {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"alerts_guest":  {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},
			"alerts":        {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"alerts_update": {RequestsPerMinute: 60, BurstSize: 20, WindowSize: time.Minute},

			"volunteers":      {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"location_update": {RequestsPerMinute: 240, BurstSize: 60, WindowSize: time.Minute},

			"reports": {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},
			"ai":      {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},

			"health": {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},

			DefaultCategory: {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

var endpointMap = map[string]string{
	"POST:/api/v1/auth/login":        "auth_login",
	"POST:/api/v1/auth/signup":       "auth_signup",
	"POST:/api/v1/volunteers/signup": "auth_signup",

	"POST:/api/v1/alerts":       "alerts_create",
	"POST:/api/v1/alerts/guest": "alerts_guest",
	"GET:/api/v1/alerts":        "alerts",
	"GET:/api/v1/alerts/*":      "alerts",
	"POST:/api/v1/alerts/*":     "alerts_update",

	"GET:/api/v1/volunteers/*":           "volunteers",
	"PUT:/api/v1/volunteers/me/location": "location_update",
	"POST:/api/v1/location":              "location_update",

	"POST:/api/v1/reports": "reports",
	"GET:/api/v1/heatmap":  "reports",
	"POST:/api/v1/ai/*":    "ai",

	"GET:/api/v1/health": "health",
}

// GetEndpointKey maps a method and route to a limit category.
func (c *Config) GetEndpointKey(endpoint, method string) string {
	key := method + ":" + endpoint
	if category, exists := endpointMap[key]; exists {
		return category
	}

	best, bestLen := DefaultCategory, 0
	for pattern, category := range endpointMap {
		if matchesPattern(key, pattern) && len(pattern) > bestLen {
			best, bestLen = category, len(pattern)
		}
	}
	return best
}

// LimitFor returns the limit of a category, falling back to the default.
func (c *Config) LimitFor(category string) RateLimit {
	if limit, exists := c.DefaultLimits[category]; exists {
		return limit
	}
	if limit, exists := c.DefaultLimits[DefaultCategory]; exists {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}

// matchesPattern checks if a key matches a pattern with a trailing wildcard
func matchesPattern(key, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}
