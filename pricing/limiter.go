package pricing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCallInterval is the minimum spacing between two calls to the
// same source when no per-source override is configured.
const DefaultCallInterval = 2 * time.Second

// Limiter enforces a minimum inter-call interval per source. Waiting on
// one source never blocks another: each source owns an independent
// token bucket with burst 1, so consecutive permits for the same source
// are spaced by at least its interval.
type Limiter struct {
	mu              sync.Mutex
	defaultInterval time.Duration
	intervals       map[string]time.Duration
	limiters        map[string]*rate.Limiter
}

func NewLimiter(defaultInterval time.Duration) *Limiter {
	if defaultInterval <= 0 {
		defaultInterval = DefaultCallInterval
	}
	return &Limiter{
		defaultInterval: defaultInterval,
		intervals:       make(map[string]time.Duration),
		limiters:        make(map[string]*rate.Limiter),
	}
}

// SetInterval overrides the minimum inter-call interval for one source.
// It must be called before the first Wait for that source.
func (l *Limiter) SetInterval(source string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intervals[source] = interval
	delete(l.limiters, source)
}

// Interval reports the configured spacing for a source.
func (l *Limiter) Interval(source string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if iv, ok := l.intervals[source]; ok {
		return iv
	}
	return l.defaultInterval
}

// Wait blocks until the source may be called again, or until ctx is
// done. A ctx error means the source is skipped this cycle.
func (l *Limiter) Wait(ctx context.Context, source string) error {
	return l.limiter(source).Wait(ctx)
}

func (l *Limiter) limiter(source string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[source]
	if !ok {
		interval := l.defaultInterval
		if iv, found := l.intervals[source]; found {
			interval = iv
		}
		lim = rate.NewLimiter(rate.Every(interval), 1)
		l.limiters[source] = lim
	}
	return lim
}
