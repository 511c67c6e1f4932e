// Package paper is a venue simulator: it fills market orders at the
// current observed price against a virtual cash balance, so the engine
// can run end to end without exchange credentials.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/arbibot/broker"
	"github.com/rustyeddy/arbibot/market"
	"github.com/rustyeddy/arbibot/pricing"
)

// Gateway implements broker.Gateway. Prices come either from an
// optional live source (the venue's public ticker) or from SetPrice.
type Gateway struct {
	mu       sync.Mutex
	cash     float64
	holdings map[string]float64
	quotes   *market.QuoteStore
	slippage float64

	source pricing.Source // optional live price feed
	log    zerolog.Logger
}

func New(initialCash float64, source pricing.Source, log zerolog.Logger) *Gateway {
	return &Gateway{
		cash:     initialCash,
		holdings: make(map[string]float64),
		quotes:   market.NewQuoteStore(),
		source:   source,
		log:      log,
	}
}

// SetSlippage makes fills cross the observed price by frac: buys fill
// higher, sells fill lower. Zero by default.
func (g *Gateway) SetSlippage(frac float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.slippage = frac
}

// SetPrice records a price observation directly, bypassing the live
// source. Used by tests and replay tooling.
func (g *Gateway) SetPrice(symbol string, price float64) {
	g.quotes.Set(market.Quote{
		Source:     "paper",
		Symbol:     symbol,
		Price:      price,
		ObservedAt: time.Now(),
	})
}

func (g *Gateway) GetPrice(ctx context.Context, symbol string) (float64, error) {
	if g.source != nil {
		price, err := g.source.Price(ctx, symbol)
		if err == nil && price > 0 {
			g.SetPrice(symbol, price)
			return price, nil
		}
		// fall through to the last stored quote
	}

	q, err := g.quotes.Get(symbol)
	if err != nil {
		return 0, fmt.Errorf("paper: no price for %q: %w", symbol, err)
	}
	return q.Price, nil
}

func (g *Gateway) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	if req.Amount <= 0 {
		return broker.OrderFill{Status: broker.StatusRejected}, fmt.Errorf("paper: non-positive amount %f", req.Amount)
	}

	price, err := g.GetPrice(ctx, req.Symbol)
	if err != nil {
		return broker.OrderFill{Status: broker.StatusRejected}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Fills cross the spread against the taker.
	switch req.Side {
	case broker.Buy:
		price *= 1 + g.slippage
	case broker.Sell:
		price *= 1 - g.slippage
	}

	cost := req.Amount * price

	switch req.Side {
	case broker.Buy:
		if cost > g.cash {
			return broker.OrderFill{Status: broker.StatusRejected},
				fmt.Errorf("paper: insufficient cash: need %.2f, have %.2f", cost, g.cash)
		}
		g.cash -= cost
		g.holdings[req.Symbol] += req.Amount

	case broker.Sell:
		if g.holdings[req.Symbol] < req.Amount {
			return broker.OrderFill{Status: broker.StatusRejected},
				fmt.Errorf("paper: insufficient holdings of %s: need %f, have %f",
					req.Symbol, req.Amount, g.holdings[req.Symbol])
		}
		g.holdings[req.Symbol] -= req.Amount
		g.cash += cost

	default:
		return broker.OrderFill{Status: broker.StatusRejected}, fmt.Errorf("paper: unknown side %q", req.Side)
	}

	g.log.Debug().Str("symbol", req.Symbol).Str("side", string(req.Side)).
		Float64("amount", req.Amount).Float64("price", price).
		Float64("cash", g.cash).Msg("paper fill")

	return broker.OrderFill{
		FilledAmount: req.Amount,
		AvgFillPrice: price,
		Status:       broker.StatusFilled,
	}, nil
}

// Cash returns the current virtual balance.
func (g *Gateway) Cash() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash
}

// Holding returns the current units held of symbol.
func (g *Gateway) Holding(symbol string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.holdings[symbol]
}
