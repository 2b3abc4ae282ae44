package strategy

import (
	"fmt"

	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/indicators"
	"github.com/tradekit/backtest/market"
	"github.com/tradekit/backtest/matching"
)

// SMACross trades a single symbol on a fast/slow simple moving average
// crossover: buy on the golden cross when flat, sell the whole position
// on the death cross.
type SMACross struct {
	Base

	fastPeriod int
	slowPeriod int

	fast *indicators.SimpleMA
	slow *indicators.SimpleMA

	lastDiff     float64
	haveLastDiff bool
}

func NewSMACross(fastPeriod, slowPeriod int) *SMACross {
	return &SMACross{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		fast:       indicators.NewSMA(fastPeriod),
		slow:       indicators.NewSMA(slowPeriod),
	}
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("sma-cross(%d,%d)", s.fastPeriod, s.slowPeriod)
}

func (s *SMACross) Initialize(bars []market.Bar, acct account.State) {
	_ = bars // indicators are streamed per bar; no precomputation needed
	_ = acct
}

func (s *SMACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = 0
	s.haveLastDiff = false
}

func (s *SMACross) GenerateSignals(bar market.Bar, acct account.State) []Signal {
	s.fast.Update(bar)
	s.slow.Update(bar)

	if !s.fast.Ready() || !s.slow.Ready() {
		return nil
	}

	diff := s.fast.Value() - s.slow.Value()

	// A cross needs a previous diff to compare against.
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil
	}

	crossedUp := s.lastDiff < 0 && diff > 0
	crossedDown := s.lastDiff > 0 && diff < 0
	s.lastDiff = diff

	held := acct.Positions[bar.Symbol].Volume

	switch {
	case crossedUp && held == 0:
		return []Signal{{
			Symbol:    bar.Symbol,
			Action:    matching.Buy,
			OrderType: matching.MarketOrder,
			Metadata:  map[string]string{"signal_type": "golden_cross", "strategy": s.Name()},
		}}

	case crossedDown && held > 0:
		return []Signal{{
			Symbol:    bar.Symbol,
			Action:    matching.Sell,
			Volume:    held,
			OrderType: matching.MarketOrder,
			Metadata:  map[string]string{"signal_type": "death_cross", "strategy": s.Name()},
		}}
	}

	return nil
}
