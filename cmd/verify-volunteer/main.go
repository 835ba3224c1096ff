// Command verify-volunteer marks a volunteer verified (or not) so the
// matcher starts (or stops) assigning alerts to them.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"sos-backend/internal/config"
	"sos-backend/internal/logging"
	"sos-backend/internal/repository/stores"
	"sos-backend/internal/services"
	"sos-backend/pkg/cache"
	"sos-backend/pkg/redis"
)

func main() {
	var (
		id     = flag.String("id", "", "Volunteer id")
		revoke = flag.Bool("revoke", false, "Clear the verified flag instead of setting it")
	)
	flag.Parse()

	if *id == "" {
		fmt.Fprintln(os.Stderr, "usage: verify-volunteer -id <volunteer-id> [-revoke]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := stores.Open(ctx, cfg.Store)
	if err != nil {
		logging.Fatalf("Failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer store.Close(ctx)

	directory := services.NewVolunteerDirectory(store.Volunteers())
	if cfg.Redis.Enabled {
		// Drop the shared snapshot so running servers see the change.
		redisClient := redis.NewClient(cfg.Redis)
		defer redisClient.Close()
		directory.SetCache(cache.NewCacheManager(redisClient, cache.DefaultCacheConfig()), cfg.DirectoryCacheTTL)
	}

	volunteers := services.NewVolunteerService(store, directory, services.NewVolunteerMatcher(cfg.Matching), services.VolunteerOptions{
		DefaultVerified: cfg.VolunteerDefaultVerified,
		MinMoveMeters:   cfg.Location.MinMoveMeters,
	})
	if err := volunteers.SetVerified(ctx, *id, !*revoke); err != nil {
		logging.Fatalf("verify-volunteer %s: %v", *id, err)
	}
	fmt.Printf("volunteer %s verified=%t\n", *id, !*revoke)
}
