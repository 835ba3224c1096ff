package cache

import (
	"context"
	"time"

	"sos-backend/internal/models"
)

// CacheManager defines the interface for caching operations
type CacheManager interface {
	// Volunteer snapshots; ok is false on a miss.
	GetVolunteers(ctx context.Context, key string) (vols []*models.Volunteer, ok bool, err error)
	SetVolunteers(ctx context.Context, key string, vols []*models.Volunteer, ttl time.Duration) error

	// Generic operations
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Tag operations for grouped invalidation
	TagKey(ctx context.Context, key string, tags ...string) error
	InvalidateByTag(ctx context.Context, tag string) error

	GetCacheStats() CacheStats
	HealthCheck(ctx context.Context) error
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	EvictionCount int64   `json:"evictionCount"`
	TotalHits     int64   `json:"totalHits"`
	TotalMisses   int64   `json:"totalMisses"`
}
