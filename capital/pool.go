// Package capital tracks two independently sized allocations of trading
// capital (steady and speculative), gates position sizing against what
// is not already reserved, and distributes realized profit back into
// the pools.
package capital

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type PoolID string

const (
	Steady      PoolID = "steady"
	Speculative PoolID = "speculative"
)

// Split is the profit distribution: the three fractions must sum to 1.
type Split struct {
	Reinvest float64
	Withdraw float64
	Reserve  float64
}

// DefaultSplit is the 50/30/20 reinvest/withdraw/reserve distribution.
var DefaultSplit = Split{Reinvest: 0.50, Withdraw: 0.30, Reserve: 0.20}

// Distribution reports where one profit event went.
type Distribution struct {
	Reinvest float64
	Withdraw float64
	Reserve  float64
}

// Update is emitted to the listener after every pool mutation, for an
// external persistence collaborator.
type Update struct {
	Pool  PoolID
	Total float64
	Used  float64
	Time  time.Time
}

// UpdateListener receives pool updates. Implementations must not call
// back into the Manager.
type UpdateListener interface {
	OnPoolUpdate(Update)
}

// Config sizes the manager. Allocations must sum to 1.
type Config struct {
	TotalCapital          float64
	SteadyAllocation      float64 // e.g. 0.90
	SpeculativeAllocation float64 // e.g. 0.10

	TradeFraction float64 // fraction of available used per trade, e.g. 0.5
	FloorMinOrder float64 // venue minimum order value, e.g. 10 USD

	ProfitSplit Split

	// DecrementOnClose switches DistributeProfit/DistributeLoss from the
	// historical reset-used-to-zero behavior to decrementing used by the
	// closed position's reserved cost. The reset behavior under-counts
	// exposure when several positions share a pool; it is kept as the
	// default for parity with the system this replaces.
	DecrementOnClose bool
}

type pool struct {
	total float64
	used  float64
}

// Manager owns the pools. All methods are safe for concurrent use; the
// engine's single loop does not need that, but two position closes in
// the same pool must never race on the used reset.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	pools    map[PoolID]*pool
	reserve  float64 // accumulated reserve bucket, outside the pools
	total    float64 // overall capital including both pools
	listener UpdateListener
	log      zerolog.Logger
}

func NewManager(cfg Config, log zerolog.Logger) (*Manager, error) {
	if cfg.TotalCapital <= 0 {
		return nil, fmt.Errorf("capital: total capital must be positive")
	}
	if math.Abs(cfg.SteadyAllocation+cfg.SpeculativeAllocation-1) > 1e-9 {
		return nil, fmt.Errorf("capital: allocations must sum to 1, got %.4f",
			cfg.SteadyAllocation+cfg.SpeculativeAllocation)
	}
	if cfg.TradeFraction <= 0 || cfg.TradeFraction > 1 {
		return nil, fmt.Errorf("capital: trade fraction must be in (0, 1]")
	}
	if s := cfg.ProfitSplit; math.Abs(s.Reinvest+s.Withdraw+s.Reserve-1) > 1e-9 {
		return nil, fmt.Errorf("capital: profit split must sum to 1")
	}

	m := &Manager{
		cfg:   cfg,
		total: cfg.TotalCapital,
		pools: map[PoolID]*pool{
			Steady:      {total: cfg.TotalCapital * cfg.SteadyAllocation},
			Speculative: {total: cfg.TotalCapital * cfg.SpeculativeAllocation},
		},
		log: log,
	}
	return m, nil
}

// SetListener registers the persistence listener. Pass nil to clear.
func (m *Manager) SetListener(l UpdateListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// SizePosition returns the USD value to commit to the next trade from
// the pool, or 0 when the pool cannot fund a minimum order.
func (m *Manager) SizePosition(id PoolID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[id]
	if !ok {
		return 0
	}

	available := p.total - p.used
	if available < m.cfg.FloorMinOrder {
		return 0
	}

	size := available * m.cfg.TradeFraction
	return math.Max(m.cfg.FloorMinOrder, math.Min(size, available))
}

// Reserve marks amount of the pool as committed to an open position.
// It must be called exactly once per opened position, before the
// position is recorded. Reserving more than is available is an error,
// never an over-reserved pool.
func (m *Manager) Reserve(id PoolID, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[id]
	if !ok {
		return fmt.Errorf("capital: unknown pool %q", id)
	}
	if amount <= 0 {
		return fmt.Errorf("capital: reserve amount must be positive")
	}
	if amount > p.total-p.used {
		return fmt.Errorf("capital: reserve %.2f exceeds available %.2f in %s pool",
			amount, p.total-p.used, id)
	}

	p.used += amount
	m.notifyLocked(id, p)
	return nil
}

// DistributeProfit splits a realized profit into reinvest/withdraw/
// reserve shares, grows the pool by the reinvest share, and releases
// the closed position's reservation. reserved is the capital cost that
// was reserved for the closing position; in the default reset mode it
// is ignored and used drops to zero for the whole pool.
func (m *Manager) DistributeProfit(id PoolID, profit, reserved float64) (Distribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[id]
	if !ok {
		return Distribution{}, fmt.Errorf("capital: unknown pool %q", id)
	}
	if profit < 0 {
		return Distribution{}, fmt.Errorf("capital: profit must be non-negative, use DistributeLoss")
	}

	d := Distribution{
		Reinvest: profit * m.cfg.ProfitSplit.Reinvest,
		Withdraw: profit * m.cfg.ProfitSplit.Withdraw,
		Reserve:  profit * m.cfg.ProfitSplit.Reserve,
	}

	m.releaseLocked(p, reserved)
	p.total += d.Reinvest
	m.reserve += d.Reserve
	m.total += profit

	m.log.Info().Str("pool", string(id)).
		Float64("profit", profit).
		Float64("reinvest", d.Reinvest).
		Float64("withdraw", d.Withdraw).
		Float64("reserve", d.Reserve).
		Msg("profit distributed")

	m.notifyLocked(id, p)
	return d, nil
}

// DistributeLoss releases the closed position's reservation and shrinks
// the pool by the loss, floored at zero.
func (m *Manager) DistributeLoss(id PoolID, loss, reserved float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.pools[id]
	if !ok {
		return fmt.Errorf("capital: unknown pool %q", id)
	}
	if loss < 0 {
		return fmt.Errorf("capital: loss must be non-negative")
	}

	m.releaseLocked(p, reserved)
	p.total = math.Max(0, p.total-loss)
	m.total = math.Max(0, m.total-loss)

	m.log.Warn().Str("pool", string(id)).Float64("loss", loss).Msg("loss recorded")

	m.notifyLocked(id, p)
	return nil
}

// releaseLocked clears the closing position's reservation. The reset
// branch reproduces the historical behavior: it also discards any other
// open position's reservation in the same pool.
func (m *Manager) releaseLocked(p *pool, reserved float64) {
	if m.cfg.DecrementOnClose {
		p.used = math.Max(0, p.used-reserved)
		return
	}
	p.used = 0
}

// AddCapital tops the system up, split across pools by their
// allocation fractions.
func (m *Manager) AddCapital(amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount <= 0 {
		return fmt.Errorf("capital: top-up must be positive")
	}

	m.total += amount
	m.pools[Steady].total += amount * m.cfg.SteadyAllocation
	m.pools[Speculative].total += amount * m.cfg.SpeculativeAllocation

	m.log.Info().Float64("amount", amount).Msg("capital added")

	m.notifyLocked(Steady, m.pools[Steady])
	m.notifyLocked(Speculative, m.pools[Speculative])
	return nil
}

// WithdrawReserve takes money out of the reserve bucket only.
func (m *Manager) WithdrawReserve(amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if amount <= 0 {
		return fmt.Errorf("capital: withdrawal must be positive")
	}
	if amount > m.reserve {
		return fmt.Errorf("capital: insufficient reserve: want %.2f, have %.2f", amount, m.reserve)
	}

	m.reserve -= amount
	m.total -= amount
	m.log.Info().Float64("amount", amount).Msg("reserve withdrawal")
	return nil
}

// PoolStatus is one pool's snapshot inside a Snapshot.
type PoolStatus struct {
	Total     float64
	Used      float64
	Available float64
}

// Snapshot is a point-in-time view of all capital state.
type Snapshot struct {
	Time    time.Time
	Total   float64
	Reserve float64
	Pools   map[PoolID]PoolStatus
}

func (m *Manager) Status() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Time:    time.Now(),
		Total:   m.total,
		Reserve: m.reserve,
		Pools:   make(map[PoolID]PoolStatus, len(m.pools)),
	}
	for id, p := range m.pools {
		snap.Pools[id] = PoolStatus{
			Total:     p.total,
			Used:      p.used,
			Available: p.total - p.used,
		}
	}
	return snap
}

// Seed restores pool state from a persisted snapshot, replacing the
// allocations computed from Config. Used at startup only.
func (m *Manager) Seed(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Total > 0 {
		m.total = snap.Total
	}
	m.reserve = snap.Reserve
	for id, st := range snap.Pools {
		if p, ok := m.pools[id]; ok {
			p.total = st.Total
			p.used = st.Used
		}
	}
}

// Available reports what the pool could still commit.
func (m *Manager) Available(id PoolID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[id]
	if !ok {
		return 0
	}
	return p.total - p.used
}

func (m *Manager) notifyLocked(id PoolID, p *pool) {
	if m.listener == nil {
		return
	}
	m.listener.OnPoolUpdate(Update{
		Pool:  id,
		Total: p.total,
		Used:  p.used,
		Time:  time.Now(),
	})
}
