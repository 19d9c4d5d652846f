package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/response"
)

// RateLimiter implements a fixed-window in-memory limiter keyed by client IP.
// Suitable for a single instance; a shared store would be needed behind a
// load balancer.
type RateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	limit    int
	counters map[string]*windowCounter
	now      func() time.Time
	stop     chan struct{}
}

type windowCounter struct {
	start time.Time
	count int
}

// NewRateLimiter builds a limiter allowing limit requests per window per client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	limiter := &RateLimiter{
		window:   window,
		limit:    limit,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go limiter.pruneLoop()
	return limiter
}

// pruneLoop evicts expired counters once per window until Close is called,
// keeping the map from growing with one entry per client seen.
func (r *RateLimiter) pruneLoop() {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Prune()
		case <-r.stop:
			return
		}
	}
}

// Close stops the background pruning goroutine.
func (r *RateLimiter) Close() {
	close(r.stop)
}

// Allow reports whether the key may proceed, counting the attempt.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	counter, ok := r.counters[key]
	if !ok || now.Sub(counter.start) >= r.window {
		r.counters[key] = &windowCounter{start: now, count: 1}
		return true
	}

	counter.count++
	return counter.count <= r.limit
}

// Prune drops counters whose window has passed. Call periodically.
func (r *RateLimiter) Prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, counter := range r.counters {
		if now.Sub(counter.start) >= r.window {
			delete(r.counters, key)
		}
	}
}

// Middleware enforces the limiter per client IP.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}
		c.Next()
	}
}
