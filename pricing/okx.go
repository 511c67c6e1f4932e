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

// OKXURL is the public market ticker endpoint.
const OKXURL = "https://www.okx.com/api/v5/market/ticker"

// OKX fetches spot prices from OKX's public REST API.
type OKX struct {
	baseURL    string
	symbols    market.SymbolTable
	httpClient *http.Client
}

func NewOKX(symbols market.SymbolTable, timeout time.Duration) *OKX {
	if symbols == nil {
		symbols = market.OKXSymbols
	}
	return &OKX{
		baseURL:    OKXURL,
		symbols:    symbols,
		httpClient: newHTTPClient(timeout),
	}
}

func (o *OKX) Name() string { return "okx" }

func (o *OKX) Price(ctx context.Context, symbol string) (float64, error) {
	instID, ok := o.symbols.Lookup(symbol)
	if !ok {
		return 0, ErrNotListed
	}

	params := url.Values{}
	params.Set("instId", instID)

	var resp struct {
		Code string `json:"code"`
		Data []struct {
			Last string `json:"last"`
		} `json:"data"`
	}
	if err := getJSON(ctx, o.httpClient, o.baseURL, params, &resp); err != nil {
		return 0, fmt.Errorf("okx %s: %w", symbol, err)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("okx %s: empty ticker data (code %s)", symbol, resp.Code)
	}

	price, err := strconv.ParseFloat(resp.Data[0].Last, 64)
	if err != nil {
		return 0, fmt.Errorf("okx %s: parse last %q: %w", symbol, resp.Data[0].Last, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("okx %s: non-positive price", symbol)
	}
	return price, nil
}
