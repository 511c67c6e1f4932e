package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultFetchTimeout bounds one price lookup, including any limiter
// wait in front of it.
const DefaultFetchTimeout = 5 * time.Second

// Aggregator fans one symbol lookup out to every configured source and
// joins the results. Sources that error, time out, trip their breaker,
// or cannot clear the rate limiter inside the timeout are silently
// omitted; the caller only ever sees the quotes that arrived.
type Aggregator struct {
	sources  []Source
	limiter  *Limiter
	breakers *breakerSet
	timeout  time.Duration
	log      zerolog.Logger
}

func NewAggregator(sources []Source, limiter *Limiter, timeout time.Duration, log zerolog.Logger) *Aggregator {
	if limiter == nil {
		limiter = NewLimiter(DefaultCallInterval)
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Aggregator{
		sources:  sources,
		limiter:  limiter,
		breakers: newBreakerSet(),
		timeout:  timeout,
		log:      log,
	}
}

// Sources returns the configured source names.
func (a *Aggregator) Sources() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}

// FetchAll returns source name -> price for the symbol. Missing sources
// are omitted, never reported as errors; an empty map is a valid result.
func (a *Aggregator) FetchAll(ctx context.Context, symbol string) map[string]float64 {
	var (
		mu     sync.Mutex
		quotes = make(map[string]float64)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range a.sources {
		src := src
		g.Go(func() error {
			price, ok := a.fetchOne(gctx, src, symbol)
			if !ok {
				return nil
			}
			mu.Lock()
			quotes[src.Name()] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return quotes
}

// fetchOne runs limiter wait, breaker, and the lookup under one deadline.
func (a *Aggregator) fetchOne(ctx context.Context, src Source, symbol string) (float64, bool) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.limiter.Wait(cctx, src.Name()); err != nil {
		a.log.Debug().Str("source", src.Name()).Str("symbol", symbol).
			Msg("rate limiter wait aborted, skipping source this cycle")
		return 0, false
	}

	v, err := a.breakers.get(src.Name()).Execute(func() (any, error) {
		return src.Price(cctx, symbol)
	})
	if err != nil {
		a.log.Debug().Err(err).Str("source", src.Name()).Str("symbol", symbol).
			Msg("price fetch failed")
		return 0, false
	}

	price := v.(float64)
	if price <= 0 {
		return 0, false
	}
	return price, true
}
