package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"sos-backend/internal/models"
)

type fakeLocations struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeLocations) Append(context.Context, *models.LiveLocation) error { return nil }

func (f *fakeLocations) ListByAlert(context.Context, string) ([]*models.LiveLocation, error) {
	return nil, nil
}

func (f *fakeLocations) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func (f *fakeLocations) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunOnceUsesRetentionCutoff(t *testing.T) {
	repo := &fakeLocations{deleted: 4}
	svc := NewCleanupService(repo, 72*time.Hour, time.Hour)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	assert.Equal(t, int64(4), svc.RunOnce(context.Background()))
	assert.Equal(t, []time.Time{now.Add(-72 * time.Hour)}, repo.cutoffs)
}

func TestRunOnceSwallowsStoreErrors(t *testing.T) {
	repo := &fakeLocations{err: errors.New("db down")}
	svc := NewCleanupService(repo, time.Hour, time.Hour)
	assert.Zero(t, svc.RunOnce(context.Background()))
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &fakeLocations{}
	svc := NewCleanupService(repo, time.Hour, 10*time.Millisecond)

	go svc.Start(context.Background())

	assert.Eventually(t, func() bool { return repo.calls() >= 2 }, time.Second, 5*time.Millisecond)
	svc.Stop()
	svc.Stop()
}

func TestStartStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := NewCleanupService(&fakeLocations{}, time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	go svc.Start(ctx)
	cancel()
	svc.Stop()
}
