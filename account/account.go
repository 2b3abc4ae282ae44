// Package account holds the portfolio state shared between the
// simulation loop, the ledger, and strategies. Strategies only ever
// see value copies produced by Snapshot.
package account

import "time"

// Position is a single-symbol holding. A position whose volume reaches
// zero is removed from the account entirely; zero-volume entries never
// persist.
type Position struct {
	Symbol      string
	Volume      int64
	AvgPrice    float64
	MarketValue float64
}

// State is the full account: cash plus open positions, with equity and
// P&L derived at every mark-to-market step.
//
// Invariant: TotalEquity == Cash + sum of Position.MarketValue.
type State struct {
	Cash        float64
	TotalEquity float64
	Positions   map[string]Position
	PnL         float64
	PnLPct      float64
}

// NewState returns an account holding only cash.
func NewState(initialCash float64) State {
	return State{
		Cash:        initialCash,
		TotalEquity: initialCash,
		Positions:   make(map[string]Position),
	}
}

// Snapshot returns a deep copy safe to hand to strategy code.
func (s State) Snapshot() State {
	cp := s
	cp.Positions = make(map[string]Position, len(s.Positions))
	for sym, pos := range s.Positions {
		cp.Positions[sym] = pos
	}
	return cp
}

// EquitySample is one row of the append-only account history.
type EquitySample struct {
	Timestamp   time.Time
	Cash        float64
	TotalEquity float64
	PnL         float64
	PnLPct      float64
}

// PositionsSnapshot is one row of the append-only positions history.
type PositionsSnapshot struct {
	Timestamp time.Time
	Positions map[string]Position
}
