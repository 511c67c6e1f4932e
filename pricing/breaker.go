package pricing

import (
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// breakerSet holds one circuit breaker per source. A source that fails
// several calls in a row is skipped outright until its cool-off lapses,
// instead of burning its rate budget on a venue that is down.
type breakerSet struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet() *breakerSet {
	return &breakerSet{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (bs *breakerSet) get(source string) *gobreaker.CircuitBreaker {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	cb, ok := bs.breakers[source]
	if !ok {
		st := gobreaker.Settings{
			Name:     source,
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// An unmapped symbol is a configuration gap, not a venue
			// outage; it must not trip the breaker.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotListed)
			},
		}
		cb = gobreaker.NewCircuitBreaker(st)
		bs.breakers[source] = cb
	}
	return cb
}
