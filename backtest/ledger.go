package backtest

import (
	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/market"
	"github.com/tradekit/backtest/matching"
)

// Ledger owns the account state for a single run: cash, per-symbol
// positions carried at weighted-average cost, and the equity figures
// derived from marks. Only the simulation loop mutates it.
type Ledger struct {
	initialCash float64
	state       account.State
}

func NewLedger(initialCash float64) *Ledger {
	return &Ledger{
		initialCash: initialCash,
		state:       account.NewState(initialCash),
	}
}

// Reset discards all positions and restores the given cash balance.
func (l *Ledger) Reset(initialCash float64) {
	l.initialCash = initialCash
	l.state = account.NewState(initialCash)
}

// State returns a deep copy safe to hand to strategies.
func (l *Ledger) State() account.State {
	return l.state.Snapshot()
}

func (l *Ledger) Cash() float64 {
	return l.state.Cash
}

func (l *Ledger) Position(symbol string) (account.Position, bool) {
	pos, ok := l.state.Positions[symbol]
	return pos, ok
}

// ApplyTrade books one fill against cash and positions.
//
// Buys pay price*volume plus the transaction cost and fold the fill
// into the weighted-average cost. Sells additionally pay the stamp tax
// (a sell-only levy); the average cost is left untouched, so realized
// P&L shows up only in the cash delta.
func (l *Ledger) ApplyTrade(t matching.Trade, stampTaxRate float64) {
	gross := t.Price * float64(t.Volume)

	switch t.Action {
	case matching.Buy:
		l.state.Cash -= gross + t.TransactionCost

		pos, ok := l.state.Positions[t.Symbol]
		if ok {
			newVolume := pos.Volume + t.Volume
			pos.AvgPrice = (pos.AvgPrice*float64(pos.Volume) + gross) / float64(newVolume)
			pos.Volume = newVolume
		} else {
			pos = account.Position{
				Symbol:   t.Symbol,
				Volume:   t.Volume,
				AvgPrice: t.Price,
			}
		}
		pos.MarketValue = float64(pos.Volume) * t.Price
		l.state.Positions[t.Symbol] = pos

	case matching.Sell:
		stampTax := gross * stampTaxRate
		l.state.Cash += gross - t.TransactionCost - stampTax

		pos, ok := l.state.Positions[t.Symbol]
		if !ok {
			return // holdings check upstream prevents this
		}
		if pos.Volume <= t.Volume {
			delete(l.state.Positions, t.Symbol)
			return
		}
		pos.Volume -= t.Volume
		pos.MarketValue = float64(pos.Volume) * t.Price
		l.state.Positions[t.Symbol] = pos
	}
}

// MarkToMarket revalues every held position and recomputes equity.
//
// The current bar's symbol marks at the bar close; any other symbol
// falls back to its average cost. Marking non-traded symbols at cost is
// a known limitation for multi-asset portfolios.
func (l *Ledger) MarkToMarket(bar market.Bar) {
	totalMarketValue := 0.0
	for symbol, pos := range l.state.Positions {
		mark := pos.AvgPrice
		if symbol == bar.Symbol {
			mark = bar.Close
		}
		pos.MarketValue = float64(pos.Volume) * mark
		l.state.Positions[symbol] = pos
		totalMarketValue += pos.MarketValue
	}

	l.state.TotalEquity = l.state.Cash + totalMarketValue
	l.state.PnL = l.state.TotalEquity - l.initialCash
	l.state.PnLPct = l.state.PnL / l.initialCash * 100
}
