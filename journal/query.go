package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT trade_id, symbol, venue, pool, amount, entry_price, exit_price, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&rec.Venue,
		&rec.Pool,
		&rec.Amount,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.RealizedPL,
		&rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, venue, pool, amount, entry_price, exit_price, open_time, close_time, realized_pl, reason
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Symbol,
			&rec.Venue,
			&rec.Pool,
			&rec.Amount,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.OpenTime,
			&rec.CloseTime,
			&rec.RealizedPL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOpenPositions returns the live positions saved for crash
// recovery, oldest first.
func (j *SQLite) ListOpenPositions() ([]PositionRow, error) {
	rows, err := j.db.Query(`
		SELECT position_id, symbol, venue, pool, entry_price, amount, capital_cost, target_price, stop_price, close_failures, opened_at
		FROM positions
		ORDER BY opened_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PositionRow
	for rows.Next() {
		var p PositionRow
		if err := rows.Scan(
			&p.PositionID,
			&p.Symbol,
			&p.Venue,
			&p.Pool,
			&p.EntryPrice,
			&p.Amount,
			&p.CapitalCost,
			&p.TargetPrice,
			&p.StopPrice,
			&p.CloseFailures,
			&p.OpenedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestPools returns the most recent snapshot per pool.
func (j *SQLite) LatestPools() (map[string]PoolSnapshot, error) {
	rows, err := j.db.Query(`
		SELECT p.time, p.pool, p.total, p.used
		FROM pools p
		JOIN (SELECT pool, MAX(time) AS t FROM pools GROUP BY pool) latest
		ON p.pool = latest.pool AND p.time = latest.t`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]PoolSnapshot)
	for rows.Next() {
		var s PoolSnapshot
		if err := rows.Scan(&s.Time, &s.Pool, &s.Total, &s.Used); err != nil {
			return nil, err
		}
		out[s.Pool] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary aggregates closed trades in [start, end).
type Summary struct {
	Trades      int
	Wins        int
	Losses      int
	GrossProfit float64
	GrossLoss   float64
	NetPL       float64
}

func (j *SQLite) Summarize(start, end time.Time) (Summary, error) {
	trades, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	s.Trades = len(trades)
	for _, t := range trades {
		s.NetPL += t.RealizedPL
		if t.RealizedPL >= 0 {
			s.Wins++
			s.GrossProfit += t.RealizedPL
		} else {
			s.Losses++
			s.GrossLoss += -t.RealizedPL
		}
	}
	return s, nil
}
