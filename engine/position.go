package engine

import (
	"time"

	"github.com/rustyeddy/arbibot/capital"
)

// State is a position's lifecycle stage. Transitions only move forward:
// open positions go to closing when an exit trigger fires, and closing
// positions either close on a successful sell or are abandoned after
// repeated sell failures.
type State int

const (
	StateOpen State = iota
	StateClosing
	StateClosed
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// maxCloseFailures is how many consecutive failed sell attempts a
// closing position tolerates before being abandoned.
const maxCloseFailures = 3

// Position is one open-to-close trade lifecycle. CapitalCost is what
// was actually reserved against the pool, reconciled from the fill
// rather than the quoted price.
type Position struct {
	ID     string
	Symbol string
	Venue  string
	Pool   capital.PoolID

	EntryPrice  float64
	Amount      float64
	CapitalCost float64
	TargetPrice float64
	StopPrice   float64

	State         State
	CloseFailures int

	OpenedAt  time.Time
	ClosedAt  time.Time
	ExitPrice float64
}

// Ledger holds every position opened during a run, preserving insertion
// order so exit evaluation is deterministic. Not safe for concurrent
// use; the engine loop owns it.
type Ledger struct {
	byID  map[string]*Position
	order []string
}

func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]*Position)}
}

func (l *Ledger) Add(p *Position) {
	if _, exists := l.byID[p.ID]; exists {
		return
	}
	l.byID[p.ID] = p
	l.order = append(l.order, p.ID)
}

func (l *Ledger) Get(id string) (*Position, bool) {
	p, ok := l.byID[id]
	return p, ok
}

// Active returns positions still in play (open or closing), oldest
// first.
func (l *Ledger) Active() []*Position {
	var out []*Position
	for _, id := range l.order {
		p := l.byID[id]
		if p.State == StateOpen || p.State == StateClosing {
			out = append(out, p)
		}
	}
	return out
}

// All returns every position ever recorded, oldest first.
func (l *Ledger) All() []*Position {
	out := make([]*Position, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

// HasActive reports whether symbol already has a live position, which
// blocks opening a second one against it.
func (l *Ledger) HasActive(symbol string) bool {
	for _, id := range l.order {
		p := l.byID[id]
		if p.Symbol == symbol && (p.State == StateOpen || p.State == StateClosing) {
			return true
		}
	}
	return false
}
