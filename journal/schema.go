package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	asset TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config BLOB,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	initial_cash REAL NOT NULL,
	terminal_equity REAL NOT NULL,
	total_return REAL NOT NULL,
	cagr REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe REAL NOT NULL,
	trades INTEGER NOT NULL,
	round_trips INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	halted INTEGER NOT NULL,
	halt_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	asset TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	commission REAL NOT NULL,
	slippage REAL NOT NULL,
	signal_time DATETIME NOT NULL,
	time DATETIME NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	position_value REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_time ON equity(run_id, time);

CREATE TABLE IF NOT EXISTS risk (
	run_id TEXT PRIMARY KEY,
	trials INTEGER NOT NULL,
	var_percentile REAL NOT NULL,
	var REAL NOT NULL,
	p5 REAL NOT NULL,
	p50 REAL NOT NULL,
	p95 REAL NOT NULL,
	median_max_drawdown REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS strategies (
	name TEXT PRIMARY KEY,
	dialect TEXT NOT NULL,
	source TEXT NOT NULL,
	created DATETIME NOT NULL,
	updated DATETIME NOT NULL
);
`
