package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name  string
	price float64
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls []time.Time
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Price(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, time.Now())
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) callTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Time, len(f.calls))
	copy(out, f.calls)
	return out
}

func newTestAggregator(sources []Source, limiter *Limiter, timeout time.Duration) *Aggregator {
	return NewAggregator(sources, limiter, timeout, zerolog.Nop())
}

func TestFetchAllOmitsFailedSources(t *testing.T) {
	t.Parallel()

	good := &fakeSource{name: "alpha", price: 100.5}
	bad := &fakeSource{name: "beta", err: errors.New("boom")}
	limited := &fakeSource{name: "gamma", err: ErrRateLimited}
	other := &fakeSource{name: "delta", price: 101.25}

	agg := newTestAggregator(
		[]Source{good, bad, limited, other},
		NewLimiter(time.Millisecond),
		time.Second,
	)

	quotes := agg.FetchAll(context.Background(), "BTC")

	assert.Equal(t, map[string]float64{
		"alpha": 100.5,
		"delta": 101.25,
	}, quotes)
}

func TestFetchAllDropsSlowSource(t *testing.T) {
	t.Parallel()

	fast := &fakeSource{name: "fast", price: 42}
	slow := &fakeSource{name: "slow", price: 43, delay: 500 * time.Millisecond}

	agg := newTestAggregator(
		[]Source{fast, slow},
		NewLimiter(time.Millisecond),
		50*time.Millisecond,
	)

	start := time.Now()
	quotes := agg.FetchAll(context.Background(), "ETH")
	elapsed := time.Since(start)

	assert.Equal(t, map[string]float64{"fast": 42}, quotes)
	// The slow source is cut at its own timeout, not waited out.
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestFetchAllEmptyWhenAllFail(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(
		[]Source{
			&fakeSource{name: "a", err: errors.New("down")},
			&fakeSource{name: "b", err: ErrRateLimited},
		},
		NewLimiter(time.Millisecond),
		time.Second,
	)

	quotes := agg.FetchAll(context.Background(), "SOL")
	assert.Empty(t, quotes)
}

func TestLimiterEnforcesInterval(t *testing.T) {
	t.Parallel()

	const interval = 100 * time.Millisecond

	src := &fakeSource{name: "spaced", price: 10}
	limiter := NewLimiter(time.Millisecond)
	limiter.SetInterval("spaced", interval)

	agg := newTestAggregator([]Source{src}, limiter, time.Second)

	for i := 0; i < 3; i++ {
		quotes := agg.FetchAll(context.Background(), "BTC")
		require.Len(t, quotes, 1)
	}

	calls := src.callTimes()
	require.Len(t, calls, 3)
	for i := 1; i < len(calls); i++ {
		gap := calls[i].Sub(calls[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
			"consecutive calls to the same source must be spaced by the interval")
	}
}

func TestLimiterDoesNotBlockOtherSources(t *testing.T) {
	t.Parallel()

	slowLimited := &fakeSource{name: "limited", price: 1}
	free := &fakeSource{name: "free", price: 2}

	limiter := NewLimiter(time.Millisecond)
	limiter.SetInterval("limited", time.Hour)

	agg := newTestAggregator([]Source{slowLimited, free}, limiter, 80*time.Millisecond)

	// First cycle: both get their initial token.
	first := agg.FetchAll(context.Background(), "BTC")
	require.Len(t, first, 2)

	// Second cycle: "limited" cannot clear its hour-long interval inside
	// the timeout and is omitted; "free" is unaffected.
	second := agg.FetchAll(context.Background(), "BTC")
	assert.Equal(t, map[string]float64{"free": 2}, second)
}

func TestBreakerSkipsConsistentlyFailingSource(t *testing.T) {
	t.Parallel()

	failing := &fakeSource{name: "flappy", err: errors.New("connection refused")}

	agg := newTestAggregator([]Source{failing}, NewLimiter(time.Millisecond), time.Second)

	for i := 0; i < 8; i++ {
		quotes := agg.FetchAll(context.Background(), "BTC")
		assert.Empty(t, quotes)
	}

	// Breaker opens after 5 consecutive failures; later cycles skip the
	// source without calling it.
	assert.Equal(t, 5, failing.callCount())
}

func TestUnlistedSymbolDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	unlisted := &fakeSource{name: "partial", err: ErrNotListed}

	agg := newTestAggregator([]Source{unlisted}, NewLimiter(time.Millisecond), time.Second)

	for i := 0; i < 8; i++ {
		agg.FetchAll(context.Background(), "OBSCURE")
	}

	// Every cycle still reaches the source: a missing mapping is not an
	// outage and must not open the circuit.
	assert.Equal(t, 8, unlisted.callCount())
}

func TestAggregatorSources(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(
		[]Source{&fakeSource{name: "one"}, &fakeSource{name: "two"}},
		NewLimiter(time.Millisecond),
		time.Second,
	)
	assert.Equal(t, []string{"one", "two"}, agg.Sources())
}
