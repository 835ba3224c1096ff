package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sos-backend/internal/models"

	goredis "github.com/redis/go-redis/v9"
)

// RedisCacheManager implements CacheManager using Redis
type RedisCacheManager struct {
	client goredis.UniversalClient
	config CacheConfig
	stats  *cacheStats
}

type cacheStats struct {
	mu            sync.RWMutex
	totalHits     int64
	totalMisses   int64
	evictionCount int64
}

func NewRedisCacheManager(client goredis.UniversalClient, config CacheConfig) *RedisCacheManager {
	return &RedisCacheManager{
		client: client,
		config: config,
		stats:  &cacheStats{},
	}
}

func (r *RedisCacheManager) GetVolunteers(ctx context.Context, key string) ([]*models.Volunteer, bool, error) {
	var vols []*models.Volunteer
	ok, err := r.get(ctx, r.buildKey(DataTypeDirectory, key), &vols)
	if err != nil || !ok {
		return nil, false, err
	}
	return vols, true, nil
}

// SetVolunteers stores a snapshot and tags it for directory-wide invalidation
func (r *RedisCacheManager) SetVolunteers(ctx context.Context, key string, vols []*models.Volunteer, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.TTLFor(DataTypeDirectory)
	}
	cacheKey := r.buildKey(DataTypeDirectory, key)
	if err := r.set(ctx, cacheKey, vols, ttl); err != nil {
		return err
	}

	if err := r.TagKey(ctx, cacheKey, TagDirectory); err != nil {
		slog.Warn("failed to tag cache key", "key", cacheKey, "error", err)
	}
	return nil
}

func (r *RedisCacheManager) Get(ctx context.Context, key string, dest any) (bool, error) {
	return r.get(ctx, r.buildKey("generic", key), dest)
}

func (r *RedisCacheManager) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}
	return r.set(ctx, r.buildKey("generic", key), value, ttl)
}

func (r *RedisCacheManager) get(ctx context.Context, cacheKey string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			r.recordMiss()
			return false, nil
		}
		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	r.recordHit()
	return true, nil
}

func (r *RedisCacheManager) set(ctx context.Context, cacheKey string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return r.client.Set(ctx, cacheKey, data, ttl).Err()
}

// Delete removes a fully qualified key and its tag bookkeeping
func (r *RedisCacheManager) Delete(ctx context.Context, key string) error {
	if err := r.removeKeyTags(ctx, key); err != nil {
		slog.Warn("failed to remove cache key tags", "key", key, "error", err)
	}
	return r.client.Del(ctx, key).Err()
}

// TagKey associates tags with a cache key
func (r *RedisCacheManager) TagKey(ctx context.Context, key string, tags ...string) error {
	tagTTL := r.config.DefaultTTL * 2 // tags outlive the data they index

	pipe := r.client.Pipeline()

	keyTagsKey := r.buildTagKey("key_tags", key)
	pipe.SAdd(ctx, keyTagsKey, tags)
	pipe.Expire(ctx, keyTagsKey, tagTTL)

	for _, tag := range tags {
		tagKeysKey := r.buildTagKey("tag_keys", tag)
		pipe.SAdd(ctx, tagKeysKey, key)
		pipe.Expire(ctx, tagKeysKey, tagTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateByTag removes all keys associated with a tag
func (r *RedisCacheManager) InvalidateByTag(ctx context.Context, tag string) error {
	tagKeysKey := r.buildTagKey("tag_keys", tag)

	keys, err := r.client.SMembers(ctx, tagKeysKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys for tag %s: %w", tag, err)
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
		pipe.Del(ctx, r.buildTagKey("key_tags", key))
	}
	pipe.Del(ctx, tagKeysKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate keys for tag %s: %w", tag, err)
	}

	r.stats.mu.Lock()
	r.stats.evictionCount += int64(len(keys))
	r.stats.mu.Unlock()
	return nil
}

func (r *RedisCacheManager) GetCacheStats() CacheStats {
	r.stats.mu.RLock()
	defer r.stats.mu.RUnlock()

	stats := CacheStats{
		TotalHits:     r.stats.totalHits,
		TotalMisses:   r.stats.totalMisses,
		EvictionCount: r.stats.evictionCount,
	}
	if total := stats.TotalHits + stats.TotalMisses; total > 0 {
		stats.HitRate = float64(stats.TotalHits) / float64(total)
		stats.MissRate = float64(stats.TotalMisses) / float64(total)
	}
	return stats
}

func (r *RedisCacheManager) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCacheManager) buildKey(keyType, identifier string) string {
	return fmt.Sprintf("%s%s:%s", r.config.KeyPrefix, keyType, identifier)
}

func (r *RedisCacheManager) buildTagKey(keyType, identifier string) string {
	return fmt.Sprintf("%s%s:%s", r.config.TagPrefix, keyType, identifier)
}

func (r *RedisCacheManager) recordHit() {
	r.stats.mu.Lock()
	r.stats.totalHits++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) recordMiss() {
	r.stats.mu.Lock()
	r.stats.totalMisses++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) removeKeyTags(ctx context.Context, key string) error {
	keyTagsKey := r.buildTagKey("key_tags", key)

	tags, err := r.client.SMembers(ctx, keyTagsKey).Result()
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	for _, tag := range tags {
		pipe.SRem(ctx, r.buildTagKey("tag_keys", tag), key)
	}
	pipe.Del(ctx, keyTagsKey)

	_, err = pipe.Exec(ctx)
	return err
}
