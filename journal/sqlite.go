package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, venue, pool, amount, entry_price, exit_price, open_time, close_time, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Venue, t.Pool, t.Amount,
		t.EntryPrice, t.ExitPrice, t.OpenTime, t.CloseTime, t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordPool(p PoolSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO pools (time, pool, total, used)
		VALUES (?, ?, ?, ?)`,
		p.Time, p.Pool, p.Total, p.Used,
	)
	return err
}

// PositionRow mirrors an open position for crash recovery. Closed and
// abandoned positions are deleted from the table; only live ones stay.
type PositionRow struct {
	PositionID    string
	Symbol        string
	Venue         string
	Pool          string
	EntryPrice    float64
	Amount        float64
	CapitalCost   float64
	TargetPrice   float64
	StopPrice     float64
	CloseFailures int
	OpenedAt      sql.NullTime
}

func (j *SQLite) SavePosition(p PositionRow) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO positions
		(position_id, symbol, venue, pool, entry_price, amount, capital_cost, target_price, stop_price, close_failures, opened_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PositionID, p.Symbol, p.Venue, p.Pool, p.EntryPrice, p.Amount,
		p.CapitalCost, p.TargetPrice, p.StopPrice, p.CloseFailures, p.OpenedAt.Time,
	)
	return err
}

func (j *SQLite) DeletePosition(positionID string) error {
	_, err := j.db.Exec(`DELETE FROM positions WHERE position_id = ?`, positionID)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
