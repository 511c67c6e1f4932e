package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/arbibot/capital"
	"github.com/rustyeddy/arbibot/config"
	"github.com/rustyeddy/arbibot/engine"
	"github.com/rustyeddy/arbibot/journal"
	"github.com/rustyeddy/arbibot/pricing"
)

// buildSources instantiates the enabled price sources. The returned map
// is keyed by source name so the venue source can be picked out.
func buildSources(cfg config.SourcesConfig) (map[string]pricing.Source, error) {
	timeout, err := cfg.ParseFetchTimeout()
	if err != nil {
		return nil, err
	}
	bulkTTL, err := cfg.ParseBulkTTL()
	if err != nil {
		return nil, err
	}

	out := make(map[string]pricing.Source, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		switch name {
		case "binance":
			out[name] = pricing.NewBinance(nil, timeout)
		case "coinbase":
			out[name] = pricing.NewCoinbase(nil, timeout)
		case "okx":
			out[name] = pricing.NewOKX(nil, timeout)
		case "bybit":
			out[name] = pricing.NewBybit(nil, timeout)
		case "coingecko":
			out[name] = pricing.NewCoinGecko(nil, timeout, bulkTTL)
		default:
			return nil, fmt.Errorf("unknown price source: %s", name)
		}
	}
	return out, nil
}

// buildAggregator wires the sources behind the rate limiter and
// per-source breakers.
func buildAggregator(cfg config.SourcesConfig, sources map[string]pricing.Source, log zerolog.Logger) (*pricing.Aggregator, error) {
	timeout, err := cfg.ParseFetchTimeout()
	if err != nil {
		return nil, err
	}
	callInterval, err := cfg.ParseCallInterval()
	if err != nil {
		return nil, err
	}
	intervals, err := cfg.ParseIntervals()
	if err != nil {
		return nil, err
	}

	limiter := pricing.NewLimiter(callInterval)
	for src, d := range intervals {
		limiter.SetInterval(src, d)
	}

	list := make([]pricing.Source, 0, len(sources))
	for _, s := range sources {
		list = append(list, s)
	}

	return pricing.NewAggregator(list, limiter, timeout, log), nil
}

func buildCapital(cfg config.CapitalConfig, log zerolog.Logger) (*capital.Manager, error) {
	return capital.NewManager(capital.Config{
		TotalCapital:          cfg.TotalCapital,
		SteadyAllocation:      cfg.SteadyAllocation,
		SpeculativeAllocation: cfg.SpeculativeAllocation,
		TradeFraction:         cfg.TradeFraction,
		FloorMinOrder:         cfg.FloorMinOrder,
		ProfitSplit: capital.Split{
			Reinvest: cfg.ReinvestFraction,
			Withdraw: cfg.WithdrawFraction,
			Reserve:  cfg.ReserveFraction,
		},
		DecrementOnClose: cfg.DecrementOnClose,
	}, log)
}

func buildJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.TradesFile, cfg.PoolsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func buildEngineConfig(cfg config.EngineConfig) (engine.Config, error) {
	tick, err := cfg.ParseTickInterval()
	if err != nil {
		return engine.Config{}, err
	}

	pool := capital.Steady
	if cfg.Pool == "speculative" {
		pool = capital.Speculative
	}

	return engine.Config{
		TickInterval: tick,
		Symbols:      cfg.Symbols,
		Pool:         pool,
	}, nil
}
