package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/arbibot/market"
)

func newTestCoinGecko(t *testing.T, ttl time.Duration) (*CoinGecko, *atomic.Int64, func(time.Duration)) {
	t.Helper()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"bitcoin":{"usd":50000},"ethereum":{"usd":3000}}`)
	}))
	t.Cleanup(srv.Close)

	g := NewCoinGecko(market.SymbolTable{"BTC": "bitcoin", "ETH": "ethereum"}, time.Second, ttl)
	g.baseURL = srv.URL

	now := time.Unix(1_700_000_000, 0)
	g.clock = func() time.Time { return now }
	advance := func(d time.Duration) { now = now.Add(d) }

	return g, &hits, advance
}

func TestCoinGeckoBulkRefreshServesAllSymbols(t *testing.T) {
	t.Parallel()

	g, hits, _ := newTestCoinGecko(t, 12*time.Second)

	btc, err := g.Price(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 50000.0, btc)

	eth, err := g.Price(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, 3000.0, eth)

	// One bulk call covered both symbols.
	assert.Equal(t, int64(1), hits.Load())
}

func TestCoinGeckoCacheExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	g, hits, advance := newTestCoinGecko(t, 10*time.Second)

	_, err := g.Price(context.Background(), "BTC")
	require.NoError(t, err)

	advance(5 * time.Second)
	_, err = g.Price(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "intra-TTL lookups are cache hits")

	advance(6 * time.Second)
	_, err = g.Price(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load(), "a lookup past the TTL refreshes the cache")
}

func TestCoinGeckoUnmappedSymbol(t *testing.T) {
	t.Parallel()

	g, hits, _ := newTestCoinGecko(t, time.Second)

	_, err := g.Price(context.Background(), "DOGE")
	assert.ErrorIs(t, err, ErrNotListed)
	assert.Equal(t, int64(0), hits.Load())
}
