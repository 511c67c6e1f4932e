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

// BinanceURL is the public spot ticker endpoint; no API key required.
const BinanceURL = "https://api.binance.com/api/v3/ticker/price"

// Binance fetches spot prices from Binance's public REST API.
type Binance struct {
	baseURL    string
	symbols    market.SymbolTable
	httpClient *http.Client
}

func NewBinance(symbols market.SymbolTable, timeout time.Duration) *Binance {
	if symbols == nil {
		symbols = market.BinanceSymbols
	}
	return &Binance{
		baseURL:    BinanceURL,
		symbols:    symbols,
		httpClient: newHTTPClient(timeout),
	}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) Price(ctx context.Context, symbol string) (float64, error) {
	pair, ok := b.symbols.Lookup(symbol)
	if !ok {
		return 0, ErrNotListed
	}

	params := url.Values{}
	params.Set("symbol", pair)

	var resp struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := getJSON(ctx, b.httpClient, b.baseURL, params, &resp); err != nil {
		return 0, fmt.Errorf("binance %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("binance %s: parse price %q: %w", symbol, resp.Price, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("binance %s: non-positive price", symbol)
	}
	return price, nil
}
