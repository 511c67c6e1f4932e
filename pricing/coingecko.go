package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/arbibot/market"
)

// CoinGeckoURL is the public simple-price endpoint. CoinGecko aggregates
// across venues, so it is queried in bulk: one request refreshes every
// monitored symbol and the result is served from a local cache until the
// TTL lapses.
const CoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// DefaultBulkTTL bounds how long a bulk refresh is reused before the
// next lookup triggers a new network call.
const DefaultBulkTTL = 12 * time.Second

// CoinGecko is the bulk/batched source: per-symbol lookups inside the TTL
// window are cache hits and cost no network call.
type CoinGecko struct {
	baseURL    string
	symbols    market.SymbolTable
	httpClient *http.Client

	ttl   time.Duration
	clock func() time.Time

	mu          sync.Mutex
	store       *market.QuoteStore
	lastRefresh time.Time
}

func NewCoinGecko(symbols market.SymbolTable, timeout, ttl time.Duration) *CoinGecko {
	if symbols == nil {
		symbols = market.CoinGeckoSymbols
	}
	if ttl <= 0 {
		ttl = DefaultBulkTTL
	}
	return &CoinGecko{
		baseURL:    CoinGeckoURL,
		symbols:    symbols,
		httpClient: newHTTPClient(timeout),
		ttl:        ttl,
		clock:      time.Now,
		store:      market.NewQuoteStore(),
	}
}

func (g *CoinGecko) Name() string { return "coingecko" }

func (g *CoinGecko) Price(ctx context.Context, symbol string) (float64, error) {
	if _, ok := g.symbols.Lookup(symbol); !ok {
		return 0, ErrNotListed
	}

	g.mu.Lock()
	stale := g.clock().Sub(g.lastRefresh) >= g.ttl
	if stale {
		if err := g.refreshLocked(ctx); err != nil {
			g.mu.Unlock()
			return 0, fmt.Errorf("coingecko %s: %w", symbol, err)
		}
	}
	g.mu.Unlock()

	q, err := g.store.Get(symbol)
	if err != nil {
		return 0, fmt.Errorf("coingecko %s: %w", symbol, err)
	}
	return q.Price, nil
}

// refreshLocked fetches prices for every mapped symbol in one request.
// Caller holds g.mu.
func (g *CoinGecko) refreshLocked(ctx context.Context) error {
	ids := make([]string, 0, len(g.symbols))
	for _, id := range g.symbols {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")

	resp := map[string]struct {
		USD float64 `json:"usd"`
	}{}
	if err := getJSON(ctx, g.httpClient, g.baseURL, params, &resp); err != nil {
		return err
	}

	now := g.clock()
	for symbol, coinID := range g.symbols {
		entry, ok := resp[coinID]
		if !ok || entry.USD <= 0 {
			continue
		}
		g.store.Set(market.Quote{
			Source:     g.Name(),
			Symbol:     symbol,
			Price:      entry.USD,
			ObservedAt: now,
		})
	}
	g.lastRefresh = now
	return nil
}
