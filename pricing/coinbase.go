package pricing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rustyeddy/arbibot/market"
)

// CoinbaseURL is the public spot price endpoint; the product id is
// interpolated into the path ("BTC-USD").
const CoinbaseURL = "https://api.coinbase.com/v2/prices/%s/spot"

// Coinbase fetches spot prices from Coinbase's public REST API.
type Coinbase struct {
	baseURL    string
	symbols    market.SymbolTable
	httpClient *http.Client
}

func NewCoinbase(symbols market.SymbolTable, timeout time.Duration) *Coinbase {
	if symbols == nil {
		symbols = market.CoinbaseSymbols
	}
	return &Coinbase{
		baseURL:    CoinbaseURL,
		symbols:    symbols,
		httpClient: newHTTPClient(timeout),
	}
}

func (c *Coinbase) Name() string { return "coinbase" }

func (c *Coinbase) Price(ctx context.Context, symbol string) (float64, error) {
	product, ok := c.symbols.Lookup(symbol)
	if !ok {
		return 0, ErrNotListed
	}

	var resp struct {
		Data struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if err := getJSON(ctx, c.httpClient, fmt.Sprintf(c.baseURL, product), nil, &resp); err != nil {
		return 0, fmt.Errorf("coinbase %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(resp.Data.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("coinbase %s: parse amount %q: %w", symbol, resp.Data.Amount, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("coinbase %s: non-positive price", symbol)
	}
	return price, nil
}
