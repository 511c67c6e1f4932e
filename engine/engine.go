// Package engine runs the trading loop: each tick scans for a
// mean-reversion opportunity on the tradable venue, opens at most one
// position against the capital pool, and evaluates every active
// position for exit.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/arbibot/broker"
	"github.com/rustyeddy/arbibot/capital"
	"github.com/rustyeddy/arbibot/pkg/id"
)

// Recorder persists completed trades. The nop implementation is fine;
// the engine never depends on persistence to run a tick.
type Recorder interface {
	RecordOpen(p *Position)
	RecordClose(p *Position, realizedPL float64, reason string)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordOpen(*Position) {}
func (NopRecorder) RecordClose(*Position, float64, string) {}

// Config tunes the loop.
type Config struct {
	TickInterval time.Duration
	Symbols      []string       // scan priority order
	Pool         capital.PoolID // pool funding new positions
}

// Engine wires the detector, pool manager, venue gateway, and ledger
// together. Not safe for concurrent use beyond Run itself; the ledger
// and position mutations all happen on the tick goroutine.
type Engine struct {
	cfg      Config
	detector *Detector
	pools    *capital.Manager
	gateway  broker.Gateway
	ledger   *Ledger
	rec      Recorder
	log      zerolog.Logger
}

func New(cfg Config, det *Detector, pools *capital.Manager, gw broker.Gateway, rec Recorder, log zerolog.Logger) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 10 * time.Second
	}
	if cfg.Pool == "" {
		cfg.Pool = capital.Steady
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	return &Engine{
		cfg:      cfg,
		detector: det,
		pools:    pools,
		gateway:  gw,
		ledger:   NewLedger(),
		rec:      rec,
		log:      log,
	}
}

// Ledger exposes the position ledger for status commands and tests.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Restore seeds previously open positions, typically read back from the
// journal at startup. Must be called before Run.
func (e *Engine) Restore(positions []*Position) {
	for _, p := range positions {
		e.ledger.Add(p)
	}
}

// Run drives ticks until ctx is cancelled. The in-flight tick finishes
// its time-bounded calls; no mid-call abort is needed.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.log.Info().Dur("interval", e.cfg.TickInterval).
		Strs("symbols", e.cfg.Symbols).
		Str("pool", string(e.cfg.Pool)).
		Msg("engine started")

	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("engine stopped")
			return ctx.Err()
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one full scan-then-exit cycle. A panic anywhere inside the
// tick is logged and absorbed so the loop survives to the next one.
func (e *Engine) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("tick recovered")
		}
	}()

	e.scanPhase(ctx)
	e.exitPhase(ctx)
}

// scanPhase opens at most one position per tick.
func (e *Engine) scanPhase(ctx context.Context) {
	opp, ok := e.detector.Scan(ctx, e.scanCandidates())
	if !ok {
		return
	}
	e.open(ctx, opp)
}

// scanCandidates filters out symbols that already carry a live
// position, keeping the configured priority order.
func (e *Engine) scanCandidates() []string {
	out := make([]string, 0, len(e.cfg.Symbols))
	for _, sym := range e.cfg.Symbols {
		if !e.ledger.HasActive(sym) {
			out = append(out, sym)
		}
	}
	return out
}

func (e *Engine) open(ctx context.Context, opp Opportunity) {
	sizeUSD := e.pools.SizePosition(e.cfg.Pool)
	if sizeUSD <= 0 {
		e.log.Debug().Str("symbol", opp.Symbol).Msg("pool cannot fund a minimum order")
		return
	}

	amount := sizeUSD / opp.VenuePrice

	fill, err := e.gateway.PlaceOrder(ctx, broker.OrderRequest{
		Symbol: opp.Symbol,
		Side:   broker.Buy,
		Amount: amount,
		Type:   broker.Market,
	})
	if err != nil || !fill.Filled() {
		e.log.Warn().Err(err).Str("symbol", opp.Symbol).Msg("entry order failed")
		return
	}

	// Reconcile against the fill, not the quote: partial fills and
	// slippage change the true capital cost.
	cost := fill.FilledAmount * fill.AvgFillPrice
	if err := e.pools.Reserve(e.cfg.Pool, cost); err != nil {
		// The buy already happened; sell it back rather than carry an
		// unreserved position.
		e.log.Error().Err(err).Str("symbol", opp.Symbol).Msg("reservation failed, unwinding entry")
		_, _ = e.gateway.PlaceOrder(ctx, broker.OrderRequest{
			Symbol: opp.Symbol,
			Side:   broker.Sell,
			Amount: fill.FilledAmount,
			Type:   broker.Market,
		})
		return
	}

	p := &Position{
		ID:          id.New(),
		Symbol:      opp.Symbol,
		Venue:       opp.Venue,
		Pool:        e.cfg.Pool,
		EntryPrice:  fill.AvgFillPrice,
		Amount:      fill.FilledAmount,
		CapitalCost: cost,
		TargetPrice: opp.TargetPrice,
		StopPrice:   opp.StopPrice,
		State:       StateOpen,
		OpenedAt:    time.Now(),
	}
	e.ledger.Add(p)
	e.rec.RecordOpen(p)

	e.log.Info().Str("id", p.ID).Str("symbol", p.Symbol).
		Float64("entry", p.EntryPrice).Float64("amount", p.Amount).
		Float64("target", p.TargetPrice).Float64("stop", p.StopPrice).
		Msg("position opened")
}
