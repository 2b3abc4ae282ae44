package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/matching"
)

func equitySeries(values ...float64) []account.EquitySample {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	samples := make([]account.EquitySample, len(values))
	for i, v := range values {
		samples[i] = account.EquitySample{
			Timestamp:   start.AddDate(0, 0, i),
			TotalEquity: v,
			Cash:        v,
		}
	}
	return samples
}

func TestComputeEmptyHistoryYieldsZeroMetrics(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, Metrics{}, e.Compute(nil, nil, nil))
	assert.Equal(t, Metrics{}, e.Compute([]account.EquitySample{}, nil, nil))

	// A single sample has no returns and also degenerates to zero.
	assert.Equal(t, Metrics{}, e.Compute(equitySeries(100_000), nil, nil))
}

func TestComputeTotalReturn(t *testing.T) {
	e := NewEngine()

	m := e.Compute(equitySeries(100, 110, 90, 95, 120), nil, nil)
	assert.InDelta(t, 20.0, m.TotalReturn, 1e-9)
}

func TestComputeMaxDrawdown(t *testing.T) {
	e := NewEngine()

	// Peak 110, trough 90: (90-110)/110 = -18.18%.
	m := e.Compute(equitySeries(100, 110, 90, 95, 120), nil, nil)
	assert.InDelta(t, -18.18, m.MaxDrawdown, 1e-9)
}

func TestComputeMonotonicEquityHasNoDrawdown(t *testing.T) {
	e := NewEngine()

	m := e.Compute(equitySeries(100, 105, 110, 120), nil, nil)
	assert.InDelta(t, 0.0, m.MaxDrawdown, 1e-9)
}

func TestComputeConstantReturnsHaveZeroVolatility(t *testing.T) {
	e := NewEngine()

	// 10% each period: sample stdev is zero, so Sharpe stays zero
	// rather than dividing by zero.
	m := e.Compute(equitySeries(100, 110, 121), nil, nil)
	assert.InDelta(t, 0.0, m.Volatility, 1e-9)
	assert.InDelta(t, 0.0, m.SharpeRatio, 1e-9)
}

func TestComputeAnnualizesOverCalendarDays(t *testing.T) {
	e := NewEngine()

	// 4 calendar days, 20% total: (1.2)^(365/4) - 1.
	m := e.Compute(equitySeries(100, 110, 90, 95, 120), nil, nil)
	assert.Greater(t, m.AnnualReturn, m.TotalReturn)
	assert.Equal(t, 5, m.TradingDays)
}

func TestComputeSortinoUsesDownsideOnly(t *testing.T) {
	e := NewEngine()

	// Two negative returns give a nonzero downside deviation.
	m := e.Compute(equitySeries(100, 110, 90, 85, 120, 115), nil, nil)
	assert.NotZero(t, m.SortinoRatio)
}

func TestComputeCountsTrades(t *testing.T) {
	e := NewEngine()

	trades := []matching.Trade{
		{ID: "trade_1", Action: matching.Buy},
		{ID: "trade_2", Action: matching.Sell},
	}
	m := e.Compute(equitySeries(100, 110), trades, nil)
	assert.Equal(t, 2, m.TotalTrades)
}

func TestWinRateFromMatchedPairs(t *testing.T) {
	e := NewEngine()

	pairs := []TradePair{
		{
			Entry: matching.Trade{Action: matching.Buy, Price: 10, Volume: 100},
			Exit:  matching.Trade{Action: matching.Sell, Price: 12, Volume: 100},
		},
		{
			Entry: matching.Trade{Action: matching.Buy, Price: 10, Volume: 100},
			Exit:  matching.Trade{Action: matching.Sell, Price: 9, Volume: 100},
		},
	}

	m := e.Compute(equitySeries(100, 110), nil, pairs)
	assert.InDelta(t, 50.0, m.WinRate, 1e-9)
	// +200 profit vs -100 loss.
	assert.InDelta(t, 2.0, m.ProfitLossRatio, 1e-9)
}

func TestSelfPairedTradeIsNeverAWin(t *testing.T) {
	e := NewEngine()

	// Pairing a trade with itself compares its price to its own price.
	// The profit is exactly zero, so the win rate must be zero too.
	tr := matching.Trade{Action: matching.Buy, Price: 10, Volume: 100}
	pairs := []TradePair{{Entry: tr, Exit: tr}}

	m := e.Compute(equitySeries(100, 110), nil, pairs)
	assert.InDelta(t, 0.0, m.WinRate, 1e-9)
	assert.InDelta(t, 0.0, m.ProfitLossRatio, 1e-9)
}

func TestNoPairsMeansZeroWinRate(t *testing.T) {
	e := NewEngine()

	m := e.Compute(equitySeries(100, 110), []matching.Trade{{ID: "trade_1"}}, nil)
	assert.InDelta(t, 0.0, m.WinRate, 1e-9)
	assert.InDelta(t, 0.0, m.ProfitLossRatio, 1e-9)
}

func TestTradePairProfit(t *testing.T) {
	p := TradePair{
		Entry: matching.Trade{Price: 10, Volume: 100},
		Exit:  matching.Trade{Price: 12.5, Volume: 100},
	}
	assert.InDelta(t, 250.0, p.Profit(), 1e-9)
}

func TestComputeRoundsForReporting(t *testing.T) {
	e := NewEngine()

	m := e.Compute(equitySeries(100_000, 100_333), nil, nil)
	require.InDelta(t, 0.33, m.TotalReturn, 1e-9)
}

func TestDrawdownZeroEquityGuard(t *testing.T) {
	e := NewEngine()

	// A zero-equity sample must not produce a division by zero.
	samples := equitySeries(100, 0, 50)
	m := e.Compute(samples, nil, nil)
	assert.NotZero(t, m.TradingDays)
}
