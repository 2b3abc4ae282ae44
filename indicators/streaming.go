// Package indicators provides streaming technical indicators computed
// bar by bar. They are deterministic: the same bar sequence always
// produces the same values.
package indicators

import (
	"fmt"

	"github.com/tradekit/backtest/market"
)

// Indicator computes a single streaming value from closed bars.
type Indicator interface {
	// Name returns a stable identifier like "SMA(10)".
	Name() string

	// Warmup returns how many updates are needed before Ready can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value is meaningful.
	Ready() bool

	// Value returns the current value; callers should check Ready first.
	Value() float64
}

// SimpleMA is a streaming Simple Moving Average over bar closes.
type SimpleMA struct {
	period int
	window []float64
}

func NewSMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		window: make([]float64, 0, period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("SMA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.window = m.window[:0]
}

func (m *SimpleMA) Update(b market.Bar) {
	m.window = append(m.window, b.Close)
	if len(m.window) > m.period {
		m.window = m.window[1:]
	}
}

func (m *SimpleMA) Ready() bool {
	return len(m.window) >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	sum := 0.0
	for _, c := range m.window {
		sum += c
	}
	return sum / float64(len(m.window))
}

// ExponentialMA is a streaming Exponential Moving Average over bar
// closes, seeded with an SMA of the first period values.
type ExponentialMA struct {
	period     int
	multiplier float64
	ema        float64
	count      int
	warmupSum  float64
}

func NewEMA(period int) *ExponentialMA {
	return &ExponentialMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int {
	return e.period
}

func (e *ExponentialMA) Reset() {
	e.ema = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ExponentialMA) Update(b market.Bar) {
	if e.count < e.period {
		e.warmupSum += b.Close
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum / float64(e.period)
		}
		return
	}
	e.ema = (b.Close-e.ema)*e.multiplier + e.ema
}

func (e *ExponentialMA) Ready() bool {
	return e.count >= e.period
}

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.ema
}
