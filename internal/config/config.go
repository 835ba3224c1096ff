package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	LogLevel       string
	AllowedOrigins []string

	Store     StoreConfig
	JWT       JWTConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
	Location  LocationConfig

	DirectoryCacheTTL        time.Duration
	VolunteerDefaultVerified bool
}

// StoreConfig selects and configures the durable store.
type StoreConfig struct {
	Driver            string // mongo | sqlite | postgres
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool
	SQLitePath        string
	DatabaseURL       string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// RedisConfig holds connection and pool settings for the Redis client.
type RedisConfig struct {
	Enabled       bool
	URL           string
	Host          string
	Port          string
	Password      string
	DB            int
	PoolSize      int
	MinIdleConns  int
	MaxRetries    int
	RetryDelay    time.Duration
	DialTimeout   time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PoolTimeout   time.Duration
	IdleTimeout   time.Duration
	FanoutChannel string
}

type RateLimitConfig struct {
	Enabled bool
}

// MatchingConfig carries the volunteer matcher knobs.
type MatchingConfig struct {
	MinRadiusKm           float64
	MaxRadiusKm           float64
	RequiredVolunteers    int
	MaxVolunteersNotified int
	NearbyRadiusKm        float64
}

type LocationConfig struct {
	Retention       time.Duration
	CleanupInterval time.Duration
	MinMoveMeters   float64
}

const (
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		Store: StoreConfig{
			Driver:            strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			MongoURI:          getEnv("MONGO_URI", ""),
			MongoDatabase:     getEnv("MONGO_DATABASE", "sos"),
			MongoTransactions: getEnvBool("MONGO_TRANSACTIONS", true),
			SQLitePath:        getEnv("SQLITE_PATH", "./data/sos.db"),
			DatabaseURL:       getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			URL:           getEnv("REDIS_URL", ""),
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvInt("REDIS_DB", 0),
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			MaxRetries:    getEnvInt("REDIS_MAX_RETRIES", 3),
			RetryDelay:    getEnvDuration("REDIS_RETRY_DELAY", 500*time.Millisecond),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:   getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:  getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:   getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:   getEnvDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
			FanoutChannel: getEnv("REDIS_FANOUT_CHANNEL", "sos:realtime"),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		},
		Matching: MatchingConfig{
			MinRadiusKm:           getEnvFloat("MATCH_MIN_RADIUS_KM", 0),
			MaxRadiusKm:           getEnvFloat("MATCH_MAX_RADIUS_KM", 20),
			RequiredVolunteers:    getEnvInt("MATCH_REQUIRED_VOLUNTEERS", 3),
			MaxVolunteersNotified: getEnvInt("MATCH_MAX_VOLUNTEERS_NOTIFIED", 5),
			NearbyRadiusKm:        getEnvFloat("NEARBY_RADIUS_KM", 1),
		},
		Location: LocationConfig{
			Retention:       getEnvDuration("LOCATION_RETENTION", 72*time.Hour),
			CleanupInterval: getEnvDuration("LOCATION_CLEANUP_INTERVAL", time.Hour),
			MinMoveMeters:   getEnvFloat("LOCATION_MIN_MOVE_METERS", 10),
		},
		DirectoryCacheTTL:        getEnvDuration("DIRECTORY_CACHE_TTL", 30*time.Second),
		VolunteerDefaultVerified: getEnvBool("VOLUNTEER_DEFAULT_VERIFIED", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store")
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("JWT_EXPIRY must be positive")
	}

	m := c.Matching
	if m.MinRadiusKm < 0 || m.MaxRadiusKm < m.MinRadiusKm {
		return fmt.Errorf("invalid match radius [%g, %g]", m.MinRadiusKm, m.MaxRadiusKm)
	}
	if m.RequiredVolunteers < 1 || m.MaxVolunteersNotified < 1 {
		return errors.New("volunteer caps must be at least 1")
	}
	if m.NearbyRadiusKm <= 0 {
		return errors.New("NEARBY_RADIUS_KM must be positive")
	}

	if c.Location.CleanupInterval < time.Minute {
		return errors.New("location cleanup interval must be at least 1 minute")
	}
	if c.Location.MinMoveMeters < 0 {
		return errors.New("LOCATION_MIN_MOVE_METERS must not be negative")
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
