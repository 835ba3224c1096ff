package services

import (
	"context"
	"log/slog"
	"time"

	"sos-backend/internal/models"
	"sos-backend/internal/repository"
	"sos-backend/pkg/cache"
)

const directorySnapshotKey = "verified"

// VolunteerDirectory is the read-only view of verified volunteers handed to
// the matcher. Snapshots may lag coordinate updates by up to the cache TTL.
type VolunteerDirectory struct {
	volunteers repository.VolunteerRepository
	cache      cache.CacheManager
	ttl        time.Duration
}

func NewVolunteerDirectory(volunteers repository.VolunteerRepository) *VolunteerDirectory {
	return &VolunteerDirectory{volunteers: volunteers}
}

// SetCache enables the Redis snapshot in front of the store.
func (d *VolunteerDirectory) SetCache(c cache.CacheManager, ttl time.Duration) {
	d.cache = c
	d.ttl = ttl
}

// Candidates returns the verified volunteers in a stable enumeration order.
func (d *VolunteerDirectory) Candidates(ctx context.Context) ([]*models.Volunteer, error) {
	if d.cache != nil {
		vols, ok, err := d.cache.GetVolunteers(ctx, directorySnapshotKey)
		if err != nil {
			slog.Warn("directory cache read failed, using store", "error", err)
		} else if ok {
			return vols, nil
		}
	}

	vols, err := d.volunteers.ListVerified(ctx)
	if err != nil {
		return nil, persistence("listing verified volunteers", err)
	}

	if d.cache != nil {
		if err := d.cache.SetVolunteers(ctx, directorySnapshotKey, vols, d.ttl); err != nil {
			slog.Warn("directory cache write failed", "error", err)
		}
	}
	return vols, nil
}

// Invalidate drops the snapshot so the next read goes to the store.
func (d *VolunteerDirectory) Invalidate(ctx context.Context) {
	if d.cache == nil {
		return
	}
	if err := d.cache.InvalidateByTag(ctx, cache.TagDirectory); err != nil {
		slog.Warn("directory cache invalidation failed", "error", err)
	}
}
