// Package strategy defines the contract between the simulation loop
// and trading strategies, plus a small set of reference strategies.
package strategy

import (
	"fmt"
	"strings"

	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/market"
	"github.com/tradekit/backtest/matching"
)

// Signal is a strategy's expressed trading intent before order sizing
// and validation. Produced fresh each bar; nothing persists across bars
// except strategy-internal state.
type Signal struct {
	Symbol string
	Action matching.Action

	// Price of 0 means "use the bar close".
	Price float64

	// Volume of 0 means "size via CalculatePositionSize".
	Volume int64

	OrderType matching.OrderType

	// Metadata carries ad hoc strategy annotations (signal type,
	// strategy name) without widening the Signal contract.
	Metadata map[string]string
}

// Strategy is called once per bar with a read-only account view. All
// calls are blocking; the loop never overlaps them.
type Strategy interface {
	Name() string

	// Initialize receives the full bar history before the run starts,
	// so strategies can precompute indicator state.
	Initialize(bars []market.Bar, acct account.State)

	// GenerateSignals returns intents for the current bar. Signals are
	// processed in exactly the order returned.
	GenerateSignals(bar market.Bar, acct account.State) []Signal

	// CalculatePositionSize returns the volume for a signal that left
	// sizing to the strategy. Never negative.
	CalculatePositionSize(acct account.State, price float64) int64

	Reset()
}

// ByName constructs a strategy by name. fast and slow configure the
// moving-average periods where the strategy uses them; zero values fall
// back to defaults.
func ByName(name string, fast, slow int) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return &Noop{}, nil
	case "sma-cross", "smacross":
		if fast <= 0 {
			fast = 10
		}
		if slow <= 0 {
			slow = 20
		}
		return NewSMACross(fast, slow), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, sma-cross)", name)
	}
}
