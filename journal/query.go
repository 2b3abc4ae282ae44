package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetRun returns a single run summary by ID.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord

	row := j.db.QueryRow(`
		SELECT run_id, created, symbol, strategy, start_time, end_time, initial_cash, final_equity,
		       total_return, annual_return, volatility, sharpe_ratio, max_drawdown, sortino_ratio, win_rate, trades
		FROM runs
		WHERE run_id = ?`, runID)

	err := row.Scan(
		&rec.RunID, &rec.Created, &rec.Symbol, &rec.Strategy, &rec.Start, &rec.End,
		&rec.InitialCash, &rec.FinalEquity,
		&rec.TotalReturn, &rec.AnnualReturn, &rec.Volatility, &rec.SharpeRatio,
		&rec.MaxDrawdown, &rec.SortinoRatio, &rec.WinRate, &rec.Trades,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListTradesByRun returns a run's trades in execution order.
func (j *SQLite) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, order_id, symbol, action, price, volume, transaction_cost, time
		FROM trades
		WHERE run_id = ?
		ORDER BY time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListTradesBetween returns trades across all runs whose time is within
// [start, end).
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, trade_id, order_id, symbol, action, price, volume, transaction_cost, time
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListEquityByRun returns a run's equity history in time order.
func (j *SQLite) ListEquityByRun(runID string) ([]EquityRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, cash, total_equity, pnl, pnl_pct
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(&rec.RunID, &rec.Time, &rec.Cash, &rec.TotalEquity, &rec.PnL, &rec.PnLPct); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID, &rec.TradeID, &rec.OrderID, &rec.Symbol, &rec.Action,
			&rec.Price, &rec.Volume, &rec.TransactionCost, &rec.Timestamp,
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
