package broker

import (
	"context"
)

// Gateway is the single venue the engine can actually trade on. Any
// non-filled status or error from it is handled as a per-cycle failure
// by the caller, never propagated as fatal.
type Gateway interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderFill, error)
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

type OrderType string

const Market OrderType = "market"

type Status string

const (
	StatusFilled   Status = "filled"
	StatusRejected Status = "rejected"
)

// OrderRequest asks the venue for a market order. Amount is in units of
// the asset, not currency.
type OrderRequest struct {
	Symbol string
	Side   Side
	Amount float64
	Type   OrderType
}

// OrderFill reports what actually happened at the venue. FilledAmount
// and AvgFillPrice may differ from the request and the quoted price;
// callers must reconcile capital accounting against the fill, not the
// quote.
type OrderFill struct {
	FilledAmount float64
	AvgFillPrice float64
	Status       Status
}

// Filled reports whether the order completed at the venue.
func (f OrderFill) Filled() bool {
	return f.Status == StatusFilled && f.FilledAmount > 0
}
