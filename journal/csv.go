package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes trades and equity rows to two CSV files. Run
// summaries have no CSV representation; RecordRun is a no-op.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"run_id", "trade_id", "order_id", "symbol", "action", "price", "volume", "transaction_cost", "time"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"run_id", "time", "cash", "total_equity", "pnl", "pnl_pct"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef}, nil
}

func (j *CSVJournal) RecordRun(RunRecord) error { return nil }

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		t.TradeID,
		t.OrderID,
		t.Symbol,
		t.Action,
		f(t.Price),
		strconv.FormatInt(t.Volume, 10),
		f(t.TransactionCost),
		t.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityRecord) error {
	err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Cash),
		f(e.TotalEquity),
		f(e.PnL),
		f(e.PnLPct),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
