package journal

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/arbibot/capital"
	"github.com/rustyeddy/arbibot/engine"
)

// Recorder bridges the engine and capital manager to a Journal.
// Journaling failures are logged, never propagated; the engine must
// keep trading when the disk is unhappy.
type Recorder struct {
	j   Journal
	db  *SQLite // non-nil when the backend supports position recovery
	log zerolog.Logger
}

func NewRecorder(j Journal, log zerolog.Logger) *Recorder {
	r := &Recorder{j: j, log: log}
	if s, ok := j.(*SQLite); ok {
		r.db = s
	}
	return r
}

func (r *Recorder) RecordOpen(p *engine.Position) {
	if r.db == nil {
		return
	}
	err := r.db.SavePosition(PositionRow{
		PositionID:    p.ID,
		Symbol:        p.Symbol,
		Venue:         p.Venue,
		Pool:          string(p.Pool),
		EntryPrice:    p.EntryPrice,
		Amount:        p.Amount,
		CapitalCost:   p.CapitalCost,
		TargetPrice:   p.TargetPrice,
		StopPrice:     p.StopPrice,
		CloseFailures: p.CloseFailures,
		OpenedAt:      sql.NullTime{Time: p.OpenedAt, Valid: true},
	})
	if err != nil {
		r.log.Error().Err(err).Str("id", p.ID).Msg("journal: save position failed")
	}
}

func (r *Recorder) RecordClose(p *engine.Position, realizedPL float64, reason string) {
	closeTime := p.ClosedAt
	if closeTime.IsZero() {
		closeTime = time.Now()
	}

	err := r.j.RecordTrade(TradeRecord{
		TradeID:    p.ID,
		Symbol:     p.Symbol,
		Venue:      p.Venue,
		Pool:       string(p.Pool),
		Amount:     p.Amount,
		EntryPrice: p.EntryPrice,
		ExitPrice:  p.ExitPrice,
		OpenTime:   p.OpenedAt,
		CloseTime:  closeTime,
		RealizedPL: realizedPL,
		Reason:     reason,
	})
	if err != nil {
		r.log.Error().Err(err).Str("id", p.ID).Msg("journal: record trade failed")
	}

	if r.db != nil {
		if err := r.db.DeletePosition(p.ID); err != nil {
			r.log.Error().Err(err).Str("id", p.ID).Msg("journal: delete position failed")
		}
	}
}

// OnPoolUpdate implements capital.UpdateListener.
func (r *Recorder) OnPoolUpdate(u capital.Update) {
	err := r.j.RecordPool(PoolSnapshot{
		Time:  u.Time,
		Pool:  string(u.Pool),
		Total: u.Total,
		Used:  u.Used,
	})
	if err != nil {
		r.log.Error().Err(err).Str("pool", string(u.Pool)).Msg("journal: record pool failed")
	}
}

// RestorePositions reads back the live positions saved by a previous
// run, for seeding the ledger at startup. Returns nil when the backend
// has no position table.
func (r *Recorder) RestorePositions() ([]*engine.Position, error) {
	if r.db == nil {
		return nil, nil
	}

	rows, err := r.db.ListOpenPositions()
	if err != nil {
		return nil, err
	}

	out := make([]*engine.Position, 0, len(rows))
	for _, row := range rows {
		out = append(out, &engine.Position{
			ID:            row.PositionID,
			Symbol:        row.Symbol,
			Venue:         row.Venue,
			Pool:          capital.PoolID(row.Pool),
			EntryPrice:    row.EntryPrice,
			Amount:        row.Amount,
			CapitalCost:   row.CapitalCost,
			TargetPrice:   row.TargetPrice,
			StopPrice:     row.StopPrice,
			State:         engine.StateOpen,
			CloseFailures: row.CloseFailures,
			OpenedAt:      row.OpenedAt.Time,
		})
	}
	return out, nil
}

// RestorePools rebuilds a capital snapshot from the latest journaled
// pool rows. ok is false when nothing was journaled yet.
func (r *Recorder) RestorePools() (capital.Snapshot, bool, error) {
	if r.db == nil {
		return capital.Snapshot{}, false, nil
	}

	latest, err := r.db.LatestPools()
	if err != nil {
		return capital.Snapshot{}, false, err
	}
	if len(latest) == 0 {
		return capital.Snapshot{}, false, nil
	}

	snap := capital.Snapshot{Pools: make(map[capital.PoolID]capital.PoolStatus, len(latest))}
	for name, s := range latest {
		snap.Pools[capital.PoolID(name)] = capital.PoolStatus{
			Total:     s.Total,
			Used:      s.Used,
			Available: s.Total - s.Used,
		}
		snap.Total += s.Total
	}
	return snap, true, nil
}
