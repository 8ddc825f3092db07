package webhook

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per identity.
type RateLimiter struct {
	limit rate.Limit
	burst int
	clock func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter allows perMinute messages per identity with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int, clock func() time.Time) *RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}

	return &RateLimiter{limit: limit, burst: burst, clock: clock, limiters: map[string]*rate.Limiter{}}
}

// Allow consumes a token for identity and reports whether one was available.
// When it was not, the returned duration estimates when the next one will be.
func (l *RateLimiter) Allow(identity string) (bool, time.Duration) {
	now := l.clock()

	l.mu.Lock()
	lim, ok := l.limiters[identity]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[identity] = lim
	}
	l.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}

	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}

	return true, 0
}

// Prune drops buckets that have refilled completely; they carry no state a
// fresh bucket would not. It is used as a janitor hook.
func (l *RateLimiter) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, id)
		}
	}
}

// Len returns the number of tracked identities.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
