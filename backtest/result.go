package backtest

import (
	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/matching"
	"github.com/tradekit/backtest/metrics"
	"github.com/tradekit/backtest/strategy"
)

// Result is the plain, serializable snapshot of a completed run,
// consumed by reporting and storage layers. The engine itself depends
// on none of them.
type Result struct {
	Orders           []*matching.Order
	Trades           []matching.Trade
	Signals          []strategy.Signal
	AccountHistory   []account.EquitySample
	PositionsHistory []account.PositionsSnapshot
	Metrics          metrics.Metrics
}

// FinalEquity returns the last recorded total equity, or 0 for an
// empty history.
func (r Result) FinalEquity() float64 {
	if len(r.AccountHistory) == 0 {
		return 0
	}
	return r.AccountHistory[len(r.AccountHistory)-1].TotalEquity
}
