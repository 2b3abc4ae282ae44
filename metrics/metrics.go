// Package metrics derives return, risk, and risk-adjusted statistics
// from a completed run's equity history and trade list. Computation is
// a pure function of its inputs.
package metrics

import (
	"math"

	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/matching"
)

// Metrics is the immutable result computed once at run completion.
// Return, volatility, drawdown, and win-rate figures are percentages;
// Sharpe, Sortino, and the profit/loss ratio are plain ratios. Values
// are rounded for reporting (2 decimals, average trade return 4); the
// underlying series keep full precision.
type Metrics struct {
	TotalReturn     float64
	AnnualReturn    float64
	Volatility      float64
	SharpeRatio     float64
	MaxDrawdown     float64
	SortinoRatio    float64
	WinRate         float64
	ProfitLossRatio float64
	TotalTrades     int
	AvgTradeReturn  float64
	TradingDays     int
}

// TradePair is a matched entry/exit round trip. Win/loss classification
// needs a reference price distinct from the fill itself: a trade
// compared against its own price is never a win.
type TradePair struct {
	Entry matching.Trade
	Exit  matching.Trade
}

// Profit is the gross round-trip result, exit volume at the price move.
func (p TradePair) Profit() float64 {
	return float64(p.Exit.Volume) * (p.Exit.Price - p.Entry.Price)
}

// Engine holds analysis parameters.
type Engine struct {
	// RiskFreeRate is annualized, e.g. 0.03.
	RiskFreeRate float64

	// AnnualizationFactor is the trading periods per year, 252 by default.
	AnnualizationFactor float64
}

func NewEngine() *Engine {
	return &Engine{
		RiskFreeRate:        0.03,
		AnnualizationFactor: 252,
	}
}

// Compute derives performance statistics from the equity history and
// trade list. pairs supplies matched entry/exit trades for win/loss
// classification; with no pairs every trade degenerates to comparison
// against itself and counts as "not a win". Empty history or an empty
// return series yields a zeroed Metrics, never a panic.
func (e *Engine) Compute(samples []account.EquitySample, trades []matching.Trade, pairs []TradePair) Metrics {
	if len(samples) == 0 {
		return Metrics{}
	}

	returns := periodReturns(samples)
	if len(returns) == 0 {
		return Metrics{}
	}

	m := Metrics{
		TotalTrades: len(trades),
		TradingDays: len(samples),
	}

	first, last := samples[0], samples[len(samples)-1]

	totalReturn := (last.TotalEquity/first.TotalEquity - 1) * 100
	m.TotalReturn = round2(totalReturn)

	// Annualize over the wall-clock span, not the sample count.
	days := int(last.Timestamp.Sub(first.Timestamp).Hours() / 24)
	annualReturn := 0.0
	if days > 0 {
		annualReturn = (math.Pow(1+totalReturn/100, 365/float64(days)) - 1) * 100
	}
	m.AnnualReturn = round2(annualReturn)

	volatility := sampleStd(returns) * math.Sqrt(e.AnnualizationFactor) * 100
	m.Volatility = round2(volatility)

	if volatility > 0 {
		m.SharpeRatio = round2((annualReturn/100 - e.RiskFreeRate) / (volatility / 100))
	}

	m.MaxDrawdown = round2(maxDrawdown(returns) * 100)

	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	downside := sampleStd(negative) * math.Sqrt(e.AnnualizationFactor)
	if downside > 0 {
		m.SortinoRatio = round2((annualReturn/100 - e.RiskFreeRate) / downside)
	}

	m.AvgTradeReturn = round4(mean(returns) * 100)

	m.WinRate, m.ProfitLossRatio = tradeStats(pairs)

	return m
}

// periodReturns is the per-period pct-change series of total equity.
func periodReturns(samples []account.EquitySample) []float64 {
	var returns []float64
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].TotalEquity
		if prev == 0 {
			continue
		}
		returns = append(returns, samples[i].TotalEquity/prev-1)
	}
	return returns
}

// maxDrawdown is the deepest peak-to-trough decline of the cumulative
// return product, as a negative fraction.
func maxDrawdown(returns []float64) float64 {
	cum := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		dd := (cum - peak) / peak
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

func tradeStats(pairs []TradePair) (winRate, profitLossRatio float64) {
	if len(pairs) == 0 {
		return 0, 0
	}

	wins := 0
	totalProfit := 0.0
	totalLoss := 0.0
	for _, p := range pairs {
		profit := p.Profit()
		if profit > 0 {
			wins++
			totalProfit += profit
		} else {
			totalLoss += profit
		}
	}

	winRate = round2(float64(wins) / float64(len(pairs)) * 100)
	if totalLoss != 0 {
		profitLossRatio = round2(math.Abs(totalProfit / totalLoss))
	}
	return winRate, profitLossRatio
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation; 0 when fewer than two points.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
