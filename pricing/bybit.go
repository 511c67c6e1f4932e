package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/arbibot/market"
)

// BybitURL is the public v5 market ticker endpoint.
const BybitURL = "https://api.bybit.com/v5/market/tickers"

// Bybit fetches spot prices from Bybit's public REST API.
type Bybit struct {
	baseURL    string
	symbols    market.SymbolTable
	httpClient *http.Client
}

func NewBybit(symbols market.SymbolTable, timeout time.Duration) *Bybit {
	if symbols == nil {
		symbols = market.BybitSymbols
	}
	return &Bybit{
		baseURL:    BybitURL,
		symbols:    symbols,
		httpClient: newHTTPClient(timeout),
	}
}

func (b *Bybit) Name() string { return "bybit" }

func (b *Bybit) Price(ctx context.Context, symbol string) (float64, error) {
	pair, ok := b.symbols.Lookup(symbol)
	if !ok {
		return 0, ErrNotListed
	}

	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", pair)

	var resp struct {
		Result struct {
			List []struct {
				LastPrice string `json:"lastPrice"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := getJSON(ctx, b.httpClient, b.baseURL, params, &resp); err != nil {
		return 0, fmt.Errorf("bybit %s: %w", symbol, err)
	}
	if len(resp.Result.List) == 0 {
		return 0, fmt.Errorf("bybit %s: empty ticker list", symbol)
	}

	price, err := strconv.ParseFloat(resp.Result.List[0].LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("bybit %s: parse lastPrice %q: %w", symbol, resp.Result.List[0].LastPrice, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("bybit %s: non-positive price", symbol)
	}
	return price, nil
}
