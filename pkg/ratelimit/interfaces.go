package ratelimit

import (
	"context"
	"time"
)

// RateLimiter decides whether a client may issue one more request in a category.
type RateLimiter interface {
	// Allow consumes one request. When it is refused, the duration is how
	// long the client should wait before retrying.
	Allow(ctx context.Context, clientID, category string) (bool, time.Duration, error)
	Limit(category string) RateLimit
	GetStats() RateLimiterStats
	Close() error
}

// RateLimit defines the configuration for rate limiting
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

// RateLimiterStats provides statistics about rate limiting
type RateLimiterStats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
	ActiveClients   int   `json:"activeClients"`
}
