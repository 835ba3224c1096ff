package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sos-backend/internal/repository"
)

// CleanupService periodically purges live-location samples older than the retention.
type CleanupService struct {
	locations repository.LocationRepository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewCleanupService(locations repository.LocationRepository, retention, interval time.Duration) *CleanupService {
	return &CleanupService{
		locations: locations,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called or ctx ends. It blocks.
func (s *CleanupService) Start(ctx context.Context) {
	defer close(s.done)
	slog.Info("starting live location cleanup", "retention", s.retention, "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return
		case <-s.stopChan:
			slog.Info("stopping live location cleanup")
			return
		}
	}
}

// Stop ends the loop and waits for it to return.
func (s *CleanupService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}

// RunOnce deletes expired samples and returns how many were removed.
func (s *CleanupService) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().UTC().Add(-s.retention)

	count, err := s.locations.DeleteBefore(ctx, cutoff)
	if err != nil {
		slog.Error("live location cleanup failed", "error", err)
		return 0
	}

	if count > 0 {
		slog.Info("purged expired live locations", "count", count, "cutoff", cutoff)
	}
	return count
}
