package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 0.0, cfg.Matching.MinRadiusKm)
	assert.Equal(t, 20.0, cfg.Matching.MaxRadiusKm)
	assert.Equal(t, 3, cfg.Matching.RequiredVolunteers)
	assert.Equal(t, 5, cfg.Matching.MaxVolunteersNotified)
	assert.Equal(t, 1.0, cfg.Matching.NearbyRadiusKm)
	assert.Equal(t, 30*time.Second, cfg.DirectoryCacheTTL)
	assert.Equal(t, 72*time.Hour, cfg.Location.Retention)
	assert.False(t, cfg.VolunteerDefaultVerified)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("MATCH_REQUIRED_VOLUNTEERS", "4")
	t.Setenv("MATCH_MAX_RADIUS_KM", "12.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("VOLUNTEER_DEFAULT_VERIFIED", "true")
	t.Setenv("DIRECTORY_CACHE_TTL", "1m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 4, cfg.Matching.RequiredVolunteers)
	assert.Equal(t, 12.5, cfg.Matching.MaxRadiusKm)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.VolunteerDefaultVerified)
	assert.Equal(t, time.Minute, cfg.DirectoryCacheTTL)
}

func TestFromEnvValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad port", map[string]string{"PORT": "99999"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"mongo without uri", map[string]string{"STORE_DRIVER": "mongo"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "cassandra"}},
		{"inverted radius", map[string]string{"MATCH_MIN_RADIUS_KM": "5", "MATCH_MAX_RADIUS_KM": "1"}},
		{"zero cap", map[string]string{"MATCH_REQUIRED_VOLUNTEERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
