// Package ratelimit implements per-client token bucket rate limiting.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int           // requests per window
	Remaining  int           // requests left before being limited
	ResetAt    time.Time     // when the bucket will be full again
	RetryAfter time.Duration // how long to wait before retrying (0 if allowed)
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// staleAfter is how long an idle full bucket is kept.
const staleAfter = 10 * time.Minute

// NewLimiter creates a limiter allowing requests per window for each key, with
// up to burst requests at once.
//
// Call Close to stop the background cleanup.
func NewLimiter(requests int, window time.Duration, burst int) *Limiter {
	l := &Limiter{
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   max(burst, 1),
		window:  window,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow consumes a token for key if one is available.
func (l *Limiter) Allow(key string) Result {
	return l.allowAt(key, time.Now())
}

func (l *Limiter) allowAt(key string, now time.Time) Result {
	l.mu.Lock()
	b := l.buckets[key]
	if b == nil {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	allowed := r.OK() && r.DelayFrom(now) == 0
	var retryAfter time.Duration
	if !allowed {
		if r.OK() {
			retryAfter = r.DelayFrom(now)
			r.CancelAt(now)
		}
		// Retry-After has a one second resolution.
		retryAfter = max(retryAfter.Round(time.Second), time.Second)
	}

	tokens := b.limiter.TokensAt(now)
	refill := time.Duration((float64(l.burst) - tokens) / float64(l.limit) * float64(time.Second))
	return Result{
		Allowed:    allowed,
		Limit:      int(math.Round(float64(l.limit) * l.window.Seconds())),
		Remaining:  max(int(tokens), 0),
		ResetAt:    now.Add(refill),
		RetryAfter: retryAfter,
	}
}

func (l *Limiter) cleanupLoop() {
	t := time.NewTicker(staleAfter)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			l.cleanup(now)
		case <-l.stop:
			return
		}
	}
}

// cleanup forgets buckets idle for staleAfter that have refilled.
func (l *Limiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > staleAfter && b.limiter.TokensAt(now) >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}
