package cache

import (
	"sos-backend/pkg/redis"
)

// NewCacheManager creates a cache manager on top of the shared Redis client
func NewCacheManager(client *redis.Client, config CacheConfig) CacheManager {
	return NewRedisCacheManager(client.GetClient(), config)
}
