package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// HostLimiter paces fetches per target host with token buckets, so one run
// never hammers a single site regardless of the worker count.
//
// Entries unused for 1 hour are evicted by a background goroutine that runs
// every 5 minutes, preventing unbounded memory growth.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      float64
	burst    int
	done     chan struct{}
}

// NewHostLimiter creates a HostLimiter allowing rps sustained requests per
// host with the given burst.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	hl := &HostLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rps,
		burst:    burst,
		done:     make(chan struct{}),
	}
	go hl.cleanupLoop()
	return hl
}

// Wait blocks until the host's bucket has a token or the context is done.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	hl.mu.Lock()
	entry, ok := hl.limiters[host]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(hl.rps), hl.burst),
		}
		hl.limiters[host] = entry
	}
	entry.lastSeen = time.Now()
	hl.mu.Unlock()

	return entry.limiter.Wait(ctx)
}

// Stop terminates the background cleanup goroutine.
func (hl *HostLimiter) Stop() {
	close(hl.done)
}

func (hl *HostLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-hl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-1 * time.Hour)
			hl.mu.Lock()
			for host, entry := range hl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(hl.limiters, host)
				}
			}
			hl.mu.Unlock()
		}
	}
}
