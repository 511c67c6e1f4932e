package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	venue TEXT NOT NULL,
	pool TEXT NOT NULL,
	amount REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	realized_pl REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS pools (
	time DATETIME NOT NULL,
	pool TEXT NOT NULL,
	total REAL NOT NULL,
	used REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	position_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	venue TEXT NOT NULL,
	pool TEXT NOT NULL,
	entry_price REAL NOT NULL,
	amount REAL NOT NULL,
	capital_cost REAL NOT NULL,
	target_price REAL NOT NULL,
	stop_price REAL NOT NULL,
	close_failures INTEGER NOT NULL DEFAULT 0,
	opened_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_close_time ON trades(close_time);
CREATE INDEX IF NOT EXISTS idx_pools_time ON pools(time);
`
