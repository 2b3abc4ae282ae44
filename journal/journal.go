// Package journal persists completed run results. It consumes the
// engine's result bundle; the engine never depends on it.
package journal

import (
	"time"

	"github.com/tradekit/backtest/backtest"
)

// RunRecord summarizes one completed backtest run.
type RunRecord struct {
	RunID    string
	Created  time.Time
	Symbol   string
	Strategy string

	Start time.Time
	End   time.Time

	InitialCash float64
	FinalEquity float64

	TotalReturn  float64
	AnnualReturn float64
	Volatility   float64
	SharpeRatio  float64
	MaxDrawdown  float64
	SortinoRatio float64
	WinRate      float64

	Trades int
}

// TradeRecord mirrors the trades table.
type TradeRecord struct {
	RunID           string
	TradeID         string
	OrderID         string
	Symbol          string
	Action          string
	Price           float64
	Volume          int64
	TransactionCost float64
	Timestamp       time.Time
}

// EquityRecord mirrors the equity table.
type EquityRecord struct {
	RunID       string
	Time        time.Time
	Cash        float64
	TotalEquity float64
	PnL         float64
	PnLPct      float64
}

type Journal interface {
	RecordRun(RunRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// SaveResult writes a run summary plus its full trade and equity
// history to the journal.
func SaveResult(j Journal, run RunRecord, res backtest.Result) error {
	run.Trades = len(res.Trades)
	run.FinalEquity = res.FinalEquity()
	run.TotalReturn = res.Metrics.TotalReturn
	run.AnnualReturn = res.Metrics.AnnualReturn
	run.Volatility = res.Metrics.Volatility
	run.SharpeRatio = res.Metrics.SharpeRatio
	run.MaxDrawdown = res.Metrics.MaxDrawdown
	run.SortinoRatio = res.Metrics.SortinoRatio
	run.WinRate = res.Metrics.WinRate

	if n := len(res.AccountHistory); n > 0 {
		run.Start = res.AccountHistory[0].Timestamp
		run.End = res.AccountHistory[n-1].Timestamp
	}

	if err := j.RecordRun(run); err != nil {
		return err
	}

	for _, t := range res.Trades {
		rec := TradeRecord{
			RunID:           run.RunID,
			TradeID:         t.ID,
			OrderID:         t.OrderID,
			Symbol:          t.Symbol,
			Action:          string(t.Action),
			Price:           t.Price,
			Volume:          t.Volume,
			TransactionCost: t.TransactionCost,
			Timestamp:       t.Timestamp,
		}
		if err := j.RecordTrade(rec); err != nil {
			return err
		}
	}

	for _, s := range res.AccountHistory {
		rec := EquityRecord{
			RunID:       run.RunID,
			Time:        s.Timestamp,
			Cash:        s.Cash,
			TotalEquity: s.TotalEquity,
			PnL:         s.PnL,
			PnLPct:      s.PnLPct,
		}
		if err := j.RecordEquity(rec); err != nil {
			return err
		}
	}

	return nil
}
