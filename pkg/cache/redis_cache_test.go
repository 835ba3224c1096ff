package cache

import (
	"context"
	"testing"
	"time"

	"sos-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*RedisCacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	config := DefaultCacheConfig()
	config.KeyPrefix = "test:"
	config.TagPrefix = "test_tag:"
	return NewRedisCacheManager(client, config), mr
}

func TestRedisCacheManager_VolunteerSnapshot(t *testing.T) {
	ctx := context.Background()
	manager, mr := newTestManager(t)

	lat, lon := 12.97, 77.59
	vols := []*models.Volunteer{
		{ID: "v1", Name: "Ravi", IsVerified: true, Latitude: &lat, Longitude: &lon, PasswordHash: "secret"},
		{ID: "v2", Name: "Meera", IsVerified: true},
	}

	t.Run("miss", func(t *testing.T) {
		got, ok, err := manager.GetVolunteers(ctx, "verified")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("hit", func(t *testing.T) {
		require.NoError(t, manager.SetVolunteers(ctx, "verified", vols, 30*time.Second))

		got, ok, err := manager.GetVolunteers(ctx, "verified")
		require.NoError(t, err)
		require.True(t, ok)
		require.Len(t, got, 2)
		assert.Equal(t, "v1", got[0].ID)
		assert.Equal(t, lat, *got[0].Latitude)
		assert.Empty(t, got[0].PasswordHash, "credential hashes never reach the cache")
		assert.False(t, got[1].HasLocation())
	})

	t.Run("expires", func(t *testing.T) {
		mr.FastForward(31 * time.Second)
		_, ok, err := manager.GetVolunteers(ctx, "verified")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	stats := manager.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(2), stats.TotalMisses)
}

func TestRedisCacheManager_InvalidateByTag(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)

	require.NoError(t, manager.SetVolunteers(ctx, "verified", []*models.Volunteer{{ID: "v1"}}, time.Minute))
	require.NoError(t, manager.InvalidateByTag(ctx, TagDirectory))

	_, ok, err := manager.GetVolunteers(ctx, "verified")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), manager.GetCacheStats().EvictionCount)

	assert.NoError(t, manager.InvalidateByTag(ctx, "unknown"))
}

func TestRedisCacheManager_Generic(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)

	require.NoError(t, manager.Set(ctx, "k", map[string]int{"a": 1}, 0))

	var dest map[string]int
	ok, err := manager.Get(ctx, "k", &dest)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, dest["a"])

	require.NoError(t, manager.Delete(ctx, manager.buildKey("generic", "k")))
	ok, err = manager.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, manager.HealthCheck(ctx))
}

func TestRedisCacheManager_ErrorsSurface(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	manager := NewRedisCacheManager(client, DefaultCacheConfig())
	mr.Close()

	_, _, err = manager.GetVolunteers(context.Background(), "verified")
	assert.Error(t, err)
}
