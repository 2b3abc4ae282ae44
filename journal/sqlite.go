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

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, symbol, strategy, start_time, end_time, initial_cash, final_equity,
		 total_return, annual_return, volatility, sharpe_ratio, max_drawdown, sortino_ratio, win_rate, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Symbol, r.Strategy, r.Start, r.End, r.InitialCash, r.FinalEquity,
		r.TotalReturn, r.AnnualReturn, r.Volatility, r.SharpeRatio, r.MaxDrawdown, r.SortinoRatio, r.WinRate, r.Trades,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, order_id, symbol, action, price, volume, transaction_cost, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.OrderID, t.Symbol, t.Action, t.Price, t.Volume, t.TransactionCost, t.Timestamp,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, cash, total_equity, pnl, pnl_pct)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Cash, e.TotalEquity, e.PnL, e.PnLPct,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
