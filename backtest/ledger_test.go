package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/backtest/market"
	"github.com/tradekit/backtest/matching"
)

func trade(action matching.Action, symbol string, price float64, volume int64, cost float64) matching.Trade {
	return matching.Trade{
		ID:              "trade_1",
		OrderID:         "order_1",
		Symbol:          symbol,
		Action:          action,
		Price:           price,
		Volume:          volume,
		TransactionCost: cost,
		Timestamp:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestLedgerBuyDebitsCashAndOpensPosition(t *testing.T) {
	l := NewLedger(100_000)

	l.ApplyTrade(trade(matching.Buy, "600000", 10.001, 100, 0.30003), 0.001)

	assert.InDelta(t, 100_000-1000.1-0.30003, l.Cash(), 1e-9)

	pos, ok := l.Position("600000")
	require.True(t, ok)
	assert.Equal(t, int64(100), pos.Volume)
	assert.InDelta(t, 10.001, pos.AvgPrice, 1e-9)
}

func TestLedgerBuyRecomputesWeightedAverage(t *testing.T) {
	l := NewLedger(100_000)

	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)
	l.ApplyTrade(trade(matching.Buy, "600000", 12.0, 100, 0), 0.001)

	pos, ok := l.Position("600000")
	require.True(t, ok)
	assert.Equal(t, int64(200), pos.Volume)
	assert.InDelta(t, 11.0, pos.AvgPrice, 1e-9)
}

func TestLedgerSellKeepsAverageCost(t *testing.T) {
	l := NewLedger(100_000)

	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)
	l.ApplyTrade(trade(matching.Buy, "600000", 12.0, 100, 0), 0.001)
	l.ApplyTrade(trade(matching.Sell, "600000", 13.0, 50, 0), 0.001)

	pos, ok := l.Position("600000")
	require.True(t, ok)
	assert.Equal(t, int64(150), pos.Volume)
	// Average cost only moves on buys.
	assert.InDelta(t, 11.0, pos.AvgPrice, 1e-9)
}

func TestLedgerSellAppliesStampTax(t *testing.T) {
	l := NewLedger(100_000)

	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)
	cashBefore := l.Cash()

	l.ApplyTrade(trade(matching.Sell, "600000", 10.0, 100, 0.3), 0.001)

	// gross 1000, cost 0.3, stamp tax 1000*0.001 = 1.0
	assert.InDelta(t, cashBefore+1000-0.3-1.0, l.Cash(), 1e-9)
}

func TestLedgerFullSellRemovesPosition(t *testing.T) {
	l := NewLedger(100_000)

	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)
	l.ApplyTrade(trade(matching.Sell, "600000", 11.0, 100, 0), 0.001)

	_, ok := l.Position("600000")
	assert.False(t, ok)
	assert.Empty(t, l.State().Positions)
}

func TestLedgerMarkToMarketUsesBarClose(t *testing.T) {
	l := NewLedger(100_000)
	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)

	l.MarkToMarket(market.Bar{Symbol: "600000", Close: 12.0})

	pos, _ := l.Position("600000")
	assert.InDelta(t, 1200.0, pos.MarketValue, 1e-9)

	st := l.State()
	assert.InDelta(t, st.Cash+1200.0, st.TotalEquity, 1e-9)
	assert.InDelta(t, st.TotalEquity-100_000, st.PnL, 1e-9)
	assert.InDelta(t, st.PnL/100_000*100, st.PnLPct, 1e-9)
}

func TestLedgerMarkToMarketFallsBackToAverageCost(t *testing.T) {
	l := NewLedger(100_000)
	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)
	l.ApplyTrade(trade(matching.Buy, "000001", 20.0, 50, 0), 0.001)

	// Only 600000 trades this bar; 000001 marks at its average cost.
	l.MarkToMarket(market.Bar{Symbol: "600000", Close: 12.0})

	pos600, _ := l.Position("600000")
	pos000, _ := l.Position("000001")
	assert.InDelta(t, 1200.0, pos600.MarketValue, 1e-9)
	assert.InDelta(t, 1000.0, pos000.MarketValue, 1e-9)

	st := l.State()
	assert.InDelta(t, st.Cash+1200.0+1000.0, st.TotalEquity, 1e-9)
}

func TestLedgerResetRestoresInitialState(t *testing.T) {
	l := NewLedger(100_000)
	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)

	l.Reset(100_000)

	assert.InDelta(t, 100_000, l.Cash(), 1e-9)
	assert.Empty(t, l.State().Positions)
	assert.InDelta(t, 100_000, l.State().TotalEquity, 1e-9)
}

func TestLedgerStateIsACopy(t *testing.T) {
	l := NewLedger(100_000)
	l.ApplyTrade(trade(matching.Buy, "600000", 10.0, 100, 0), 0.001)

	st := l.State()
	st.Cash = 0
	delete(st.Positions, "600000")

	// Mutating the snapshot must not touch the ledger.
	assert.NotEqual(t, 0.0, l.Cash())
	_, ok := l.Position("600000")
	assert.True(t, ok)
}
