package cache

import "time"

// CacheConfig holds configuration for cache TTL values and key layout
type CacheConfig struct {
	DirectoryTTL time.Duration `json:"directoryTTL"` // verified volunteer snapshot
	DefaultTTL   time.Duration `json:"defaultTTL"`
	KeyPrefix    string        `json:"keyPrefix"`
	TagPrefix    string        `json:"tagPrefix"`
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DirectoryTTL: 30 * time.Second,
		DefaultTTL:   time.Minute,
		KeyPrefix:    "sos:",
		TagPrefix:    "sos_tag:",
	}
}

// TTLFor returns the TTL used for a data type
func (c CacheConfig) TTLFor(dataType string) time.Duration {
	switch dataType {
	case DataTypeDirectory:
		return c.DirectoryTTL
	default:
		return c.DefaultTTL
	}
}

const (
	DataTypeDirectory = "directory"

	// TagDirectory marks every key derived from the volunteer directory.
	TagDirectory = "directory"
)
