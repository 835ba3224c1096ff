package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter keeps one token bucket per client and category in process memory.
type MemoryRateLimiter struct {
	config  *Config
	total   atomic.Int64
	blocked atomic.Int64

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	limiter := &MemoryRateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
		now:     time.Now,
	}

	if config.CleanupInterval > 0 {
		limiter.wg.Add(1)
		go limiter.cleanupLoop()
	}

	return limiter
}

func (r *MemoryRateLimiter) Allow(_ context.Context, clientID, category string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}
	r.total.Add(1)

	limit := r.config.LimitFor(category)
	key := clientID + ":" + category
	now := r.now()

	r.mu.Lock()
	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(perMinute(limit.RequestsPerMinute), limit.BurstSize)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	r.mu.Unlock()

	if b.limiter.AllowN(now, 1) {
		return true, 0, nil
	}

	res := b.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)

	r.blocked.Add(1)
	return false, wait, nil
}

func (r *MemoryRateLimiter) Limit(category string) RateLimit {
	return r.config.LimitFor(category)
}

func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	r.mu.Lock()
	active := len(r.buckets)
	r.mu.Unlock()

	return RateLimiterStats{
		TotalRequests:   r.total.Load(),
		BlockedRequests: r.blocked.Load(),
		ActiveClients:   active,
	}
}

// Close stops the cleanup goroutine.
func (r *MemoryRateLimiter) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	return nil
}

func (r *MemoryRateLimiter) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evictIdle(time.Hour)
		}
	}
}

// evictIdle drops buckets unused for longer than idle.
func (r *MemoryRateLimiter) evictIdle(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, b := range r.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(r.buckets, key)
			n++
		}
	}
	return n
}

func perMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}
