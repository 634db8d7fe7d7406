package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitStats are per-cycle counters exposed through the service layer
// and reset at the start of each generation.
type RateLimitStats struct {
	TotalRequests    int64   `json:"total_requests"`
	ThrottledWaits   int64   `json:"throttled_waits"`
	TotalWaitSeconds float64 `json:"total_wait_seconds"`
	IsRateLimited    bool    `json:"is_rate_limited"`
}

// RateLimiter is a token-bucket limiter shared per provider. Acquire blocks
// callers; the wait happens outside the stats critical section.
type RateLimiter struct {
	limiter *rate.Limiter

	mu    sync.Mutex
	stats RateLimitStats
}

// NewRateLimiter allows `perSecond` sustained requests with `burst` headroom.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Acquire blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	waited := time.Since(start)

	r.mu.Lock()
	r.stats.TotalRequests++
	if waited > 10*time.Millisecond {
		r.stats.ThrottledWaits++
		r.stats.TotalWaitSeconds += waited.Seconds()
		r.stats.IsRateLimited = true
	}
	r.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the counters.
func (r *RateLimiter) Stats() RateLimitStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Reset clears counters at the start of a generation cycle.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = RateLimitStats{}
}
