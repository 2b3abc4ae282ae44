package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	initial_cash REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_return REAL NOT NULL,
	annual_return REAL NOT NULL,
	volatility REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sortino_ratio REAL NOT NULL,
	win_rate REAL NOT NULL,
	trades INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	price REAL NOT NULL,
	volume INTEGER NOT NULL,
	transaction_cost REAL NOT NULL,
	time DATETIME NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	cash REAL NOT NULL,
	total_equity REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_pct REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
CREATE INDEX IF NOT EXISTS idx_equity_run_time ON equity(run_id, time);
`
