package strategy

import (
	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/market"
)

// Params are the sizing inputs the simulation loop pushes into a
// strategy before a run. They mirror the loop's own configuration so
// strategy sizing and order validation agree on fees.
type Params struct {
	InitialCash         float64
	TransactionCostRate float64
	SlippageRate        float64
	MaxPositionPct      float64
}

// Base provides shared parameter handling and the default position
// sizing rule. Concrete strategies embed it.
type Base struct {
	params Params
}

// SetParams replaces the sizing parameters.
func (b *Base) SetParams(p Params) {
	b.params = p
}

// Params returns the current sizing parameters.
func (b *Base) Params() Params {
	return b.params
}

// CalculatePositionSize spends at most MaxPositionPct of available cash
// on a single order, reserving headroom for fees and slippage. Rounds
// down; never negative.
func (b *Base) CalculatePositionSize(acct account.State, price float64) int64 {
	denom := price * (1 + b.params.TransactionCostRate + b.params.SlippageRate)
	if denom <= 0 {
		return 0
	}

	available := acct.Cash * b.params.MaxPositionPct
	size := int64(available / denom)
	if size < 0 {
		return 0
	}
	return size
}

// Noop generates no signals. Useful for wiring tests and dry runs.
type Noop struct{ Base }

func (Noop) Name() string { return "noop" }

func (Noop) Initialize([]market.Bar, account.State) {}

func (Noop) GenerateSignals(market.Bar, account.State) []Signal { return nil }

func (Noop) Reset() {}
