package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/arbibot/broker"
)

// exitPhase evaluates every active position once. Price checks fan out
// concurrently; decisions then apply sequentially in insertion order so
// replays over the same data stay deterministic.
func (e *Engine) exitPhase(ctx context.Context) {
	active := e.ledger.Active()
	if len(active) == 0 {
		return
	}

	prices := e.fetchExitPrices(ctx, active)

	for _, p := range active {
		price, ok := prices[p.ID]
		if !ok {
			// Fetch failed; the position just waits for the next tick.
			continue
		}
		e.evaluateExit(ctx, p, price)
	}
}

// fetchExitPrices gets the current venue price for each position,
// keyed by position id. Failed fetches are absent.
func (e *Engine) fetchExitPrices(ctx context.Context, active []*Position) map[string]float64 {
	var mu sync.Mutex
	prices := make(map[string]float64, len(active))

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range active {
		p := p
		g.Go(func() error {
			price, err := e.gateway.GetPrice(ctx, p.Symbol)
			if err != nil {
				e.log.Debug().Err(err).Str("symbol", p.Symbol).Msg("exit price check failed")
				return nil
			}
			mu.Lock()
			prices[p.ID] = price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return prices
}

// evaluateExit applies one tick's decision to one position. Target is
// checked before stop, so a price that satisfies both realizes the win.
func (e *Engine) evaluateExit(ctx context.Context, p *Position, price float64) {
	var reason string
	switch {
	case price >= p.TargetPrice:
		reason = "target"
	case price <= p.StopPrice:
		reason = "stop"
	default:
		return
	}

	p.State = StateClosing

	fill, err := e.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol: p.Symbol,
		Side:   broker.Sell,
		Amount: p.Amount,
		Type:   broker.Market,
	})
	if err != nil || !fill.Filled() {
		p.CloseFailures++
		if p.CloseFailures >= maxCloseFailures {
			// Abandoned positions keep their capital marked used; the
			// next profit or loss event in the pool clears it.
			p.State = StateAbandoned
			e.log.Error().Str("id", p.ID).Str("symbol", p.Symbol).
				Int("failures", p.CloseFailures).Msg("position abandoned")
			e.rec.RecordClose(p, 0, "abandoned")
			return
		}
		p.State = StateOpen
		e.log.Warn().Err(err).Str("id", p.ID).Str("symbol", p.Symbol).
			Int("failures", p.CloseFailures).Msg("close order failed, will retry")
		return
	}

	p.State = StateClosed
	p.ClosedAt = time.Now()
	p.ExitPrice = fill.AvgFillPrice

	realized := (fill.AvgFillPrice - p.EntryPrice) * p.Amount

	if realized >= 0 {
		if _, err := e.pools.DistributeProfit(p.Pool, realized, p.CapitalCost); err != nil {
			e.log.Error().Err(err).Str("id", p.ID).Msg("profit distribution failed")
		}
	} else {
		if err := e.pools.DistributeLoss(p.Pool, -realized, p.CapitalCost); err != nil {
			e.log.Error().Err(err).Str("id", p.ID).Msg("loss distribution failed")
		}
	}

	e.rec.RecordClose(p, realized, reason)

	e.log.Info().Str("id", p.ID).Str("symbol", p.Symbol).
		Str("reason", reason).
		Float64("entry", p.EntryPrice).Float64("exit", fill.AvgFillPrice).
		Float64("realized", realized).Msg("position closed")
}
