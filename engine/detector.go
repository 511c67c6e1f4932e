package engine

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// QuoteFetcher supplies one cycle's worth of prices for a symbol,
// keyed by source name. Failed sources are simply absent.
type QuoteFetcher interface {
	FetchAll(ctx context.Context, symbol string) map[string]float64
}

// Opportunity is a symbol trading below its cross-venue reference on
// the tradable venue. Deviation is relative to the reference, so 0.02
// means the venue sits 2 percent under the market consensus.
type Opportunity struct {
	Symbol     string
	Venue      string
	VenuePrice float64
	RefPrice   float64
	Deviation  float64

	TargetPrice float64
	StopPrice   float64
}

// DetectorConfig tunes the mean-reversion trigger.
type DetectorConfig struct {
	Venue        string  // source name of the tradable venue
	MinDeviation float64 // entry threshold, e.g. 0.02
	StopFraction float64 // stop distance below entry, e.g. 0.02
}

// Detector finds symbols whose tradable-venue price has dipped below
// the consensus of the other sources.
type Detector struct {
	fetcher QuoteFetcher
	cfg     DetectorConfig
	log     zerolog.Logger
}

func NewDetector(fetcher QuoteFetcher, cfg DetectorConfig, log zerolog.Logger) *Detector {
	return &Detector{fetcher: fetcher, cfg: cfg, log: log}
}

// Evaluate inspects a single symbol. It returns ok=false when there is
// no opportunity: fewer than two quotes, no quote from the tradable
// venue, or a deviation below the entry threshold.
func (d *Detector) Evaluate(ctx context.Context, symbol string) (Opportunity, bool) {
	quotes := d.fetcher.FetchAll(ctx, symbol)
	if len(quotes) < 2 {
		return Opportunity{}, false
	}

	venuePrice, ok := quotes[d.cfg.Venue]
	if !ok {
		return Opportunity{}, false
	}

	// Reference is the mean of every source except the venue itself.
	var sum float64
	var n int
	for src, price := range quotes {
		if src == d.cfg.Venue {
			continue
		}
		sum += price
		n++
	}
	if n == 0 {
		return Opportunity{}, false
	}
	ref := sum / float64(n)

	dev := (ref - venuePrice) / ref
	if dev < d.cfg.MinDeviation {
		return Opportunity{}, false
	}

	opp := Opportunity{
		Symbol:      symbol,
		Venue:       d.cfg.Venue,
		VenuePrice:  venuePrice,
		RefPrice:    ref,
		Deviation:   dev,
		TargetPrice: ref,
		StopPrice:   venuePrice * (1 - d.cfg.StopFraction),
	}

	d.log.Info().Str("symbol", symbol).
		Float64("venue_price", venuePrice).
		Float64("ref_price", ref).
		Float64("deviation", dev).
		Msg("opportunity detected")

	return opp, true
}

// Scan walks symbols in order and returns the first opportunity found.
// Symbol order is the caller's priority order; one hit ends the scan.
func (d *Detector) Scan(ctx context.Context, symbols []string) (Opportunity, bool) {
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return Opportunity{}, false
		}
		if opp, ok := d.Evaluate(ctx, sym); ok {
			return opp, true
		}
	}
	return Opportunity{}, false
}

// Survey evaluates every symbol regardless of the entry threshold and
// returns all positive deviations above the noise floor, largest
// first. Used by the one-shot scan command, not the trading loop.
func (d *Detector) Survey(ctx context.Context, symbols []string) []Opportunity {
	const noiseFloor = 0.001

	var out []Opportunity
	for _, sym := range symbols {
		quotes := d.fetcher.FetchAll(ctx, sym)
		if len(quotes) < 2 {
			continue
		}
		venuePrice, ok := quotes[d.cfg.Venue]
		if !ok {
			continue
		}

		var sum float64
		var n int
		for src, price := range quotes {
			if src == d.cfg.Venue {
				continue
			}
			sum += price
			n++
		}
		if n == 0 {
			continue
		}
		ref := sum / float64(n)
		dev := (ref - venuePrice) / ref
		if dev <= noiseFloor {
			continue
		}

		out = append(out, Opportunity{
			Symbol:      sym,
			Venue:       d.cfg.Venue,
			VenuePrice:  venuePrice,
			RefPrice:    ref,
			Deviation:   dev,
			TargetPrice: ref,
			StopPrice:   venuePrice * (1 - d.cfg.StopFraction),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Deviation > out[j].Deviation })
	return out
}
