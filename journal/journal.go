package journal

import "time"

// TradeRecord is one completed round trip (buy then sell) or an
// abandoned position written out for the books.
type TradeRecord struct {
	TradeID    string
	Symbol     string
	Venue      string
	Pool       string
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// PoolSnapshot is one pool's allocation state at a point in time.
type PoolSnapshot struct {
	Time  time.Time
	Pool  string
	Total float64
	Used  float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordPool(PoolSnapshot) error
	Close() error
}

// Nop discards everything. Used when journaling is disabled.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error { return nil }
func (Nop) RecordPool(PoolSnapshot) error { return nil }
func (Nop) Close() error { return nil }

var _ Journal = Nop{}
