package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/backtest"
	"github.com/tradekit/backtest/matching"
	"github.com/tradekit/backtest/metrics"
)

var day1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func sampleRun() RunRecord {
	return RunRecord{
		RunID:       "01HTEST",
		Created:     day1,
		Symbol:      "600000",
		Strategy:    "sma-cross(10,20)",
		Start:       day1,
		End:         day1.AddDate(0, 0, 5),
		InitialCash: 100_000,
		FinalEquity: 101_500,
		TotalReturn: 1.5,
		SharpeRatio: 0.8,
		MaxDrawdown: -3.2,
		Trades:      4,
	}
}

func sampleTrade(id string, ts time.Time) TradeRecord {
	return TradeRecord{
		RunID:           "01HTEST",
		TradeID:         id,
		OrderID:         "order_1_00000000",
		Symbol:          "600000",
		Action:          "buy",
		Price:           10.001,
		Volume:          100,
		TransactionCost: 0.30003,
		Timestamp:       ts,
	}
}

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	j := newTestDB(t)

	run := sampleRun()
	require.NoError(t, j.RecordRun(run))

	got, err := j.GetRun(run.RunID)
	require.NoError(t, err)

	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.Strategy, got.Strategy)
	assert.InDelta(t, run.FinalEquity, got.FinalEquity, 1e-9)
	assert.InDelta(t, run.TotalReturn, got.TotalReturn, 1e-9)
	assert.InDelta(t, run.MaxDrawdown, got.MaxDrawdown, 1e-9)
	assert.Equal(t, run.Trades, got.Trades)
	assert.True(t, run.Start.Equal(got.Start))
	assert.True(t, run.End.Equal(got.End))
}

func TestSQLiteGetRunMissing(t *testing.T) {
	j := newTestDB(t)

	_, err := j.GetRun("absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteDuplicateRunIDRejected(t *testing.T) {
	j := newTestDB(t)

	run := sampleRun()
	require.NoError(t, j.RecordRun(run))
	assert.Error(t, j.RecordRun(run))
}

func TestSQLiteTradesByRun(t *testing.T) {
	j := newTestDB(t)
	require.NoError(t, j.RecordRun(sampleRun()))

	require.NoError(t, j.RecordTrade(sampleTrade("trade_1", day1)))
	require.NoError(t, j.RecordTrade(sampleTrade("trade_2", day1.AddDate(0, 0, 1))))

	trades, err := j.ListTradesByRun("01HTEST")
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "trade_1", trades[0].TradeID)
	assert.Equal(t, "trade_2", trades[1].TradeID)
	assert.InDelta(t, 10.001, trades[0].Price, 1e-9)
	assert.Equal(t, int64(100), trades[0].Volume)
	assert.True(t, day1.Equal(trades[0].Timestamp))
}

func TestSQLiteTradesBetween(t *testing.T) {
	j := newTestDB(t)
	require.NoError(t, j.RecordRun(sampleRun()))

	for i := 0; i < 4; i++ {
		tr := sampleTrade("trade_"+string(rune('1'+i)), day1.AddDate(0, 0, i))
		require.NoError(t, j.RecordTrade(tr))
	}

	// Half-open interval: day2 included, day4 excluded.
	trades, err := j.ListTradesBetween(day1.AddDate(0, 0, 1), day1.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestSQLiteEquityByRun(t *testing.T) {
	j := newTestDB(t)
	require.NoError(t, j.RecordRun(sampleRun()))

	for i := 0; i < 3; i++ {
		rec := EquityRecord{
			RunID:       "01HTEST",
			Time:        day1.AddDate(0, 0, i),
			Cash:        100_000,
			TotalEquity: 100_000 + float64(i)*500,
			PnL:         float64(i) * 500,
			PnLPct:      float64(i) * 0.5,
		}
		require.NoError(t, j.RecordEquity(rec))
	}

	equity, err := j.ListEquityByRun("01HTEST")
	require.NoError(t, err)
	require.Len(t, equity, 3)
	assert.InDelta(t, 101_000.0, equity[2].TotalEquity, 1e-9)
	assert.InDelta(t, 1.0, equity[2].PnLPct, 1e-9)
}

func TestCSVJournalWritesRows(t *testing.T) {
	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	require.NoError(t, j.RecordRun(sampleRun())) // no-op for CSV
	require.NoError(t, j.RecordTrade(sampleTrade("trade_1", day1)))
	require.NoError(t, j.RecordEquity(EquityRecord{
		RunID: "01HTEST", Time: day1, Cash: 100_000, TotalEquity: 100_000,
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "trade_id", rows[0][1])
	assert.Equal(t, "trade_1", rows[1][1])
	assert.Equal(t, "10.001000", rows[1][5])
	assert.Equal(t, "100", rows[1][6])

	rows = readCSV(t, equityPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "run_id", rows[0][0])
	assert.Equal(t, "100000.000000", rows[1][2])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// memJournal records everything in memory for SaveResult assertions.
type memJournal struct {
	runs   []RunRecord
	trades []TradeRecord
	equity []EquityRecord
}

func (m *memJournal) RecordRun(r RunRecord) error { m.runs = append(m.runs, r); return nil }

func (m *memJournal) RecordTrade(t TradeRecord) error { m.trades = append(m.trades, t); return nil }

func (m *memJournal) RecordEquity(e EquityRecord) error { m.equity = append(m.equity, e); return nil }

func (m *memJournal) Close() error { return nil }

func TestSaveResultFillsSummaryFromResult(t *testing.T) {
	res := backtest.Result{
		Trades: []matching.Trade{
			{ID: "trade_1", OrderID: "order_1_0", Symbol: "600000", Action: matching.Buy, Price: 10.001, Volume: 100, Timestamp: day1},
			{ID: "trade_2", OrderID: "order_2_0", Symbol: "600000", Action: matching.Sell, Price: 12, Volume: 100, Timestamp: day1.AddDate(0, 0, 2)},
		},
		AccountHistory: []account.EquitySample{
			{Timestamp: day1, Cash: 100_000, TotalEquity: 100_000},
			{Timestamp: day1.AddDate(0, 0, 2), Cash: 100_199, TotalEquity: 100_199, PnL: 199, PnLPct: 0.199},
		},
		Metrics: metrics.Metrics{TotalReturn: 0.2, SharpeRatio: 1.1, MaxDrawdown: -0.5, WinRate: 100},
	}

	m := &memJournal{}
	run := RunRecord{RunID: "01HTEST", Symbol: "600000", Strategy: "script", InitialCash: 100_000}
	require.NoError(t, SaveResult(m, run, res))

	require.Len(t, m.runs, 1)
	saved := m.runs[0]
	assert.Equal(t, 2, saved.Trades)
	assert.InDelta(t, 100_199.0, saved.FinalEquity, 1e-9)
	assert.InDelta(t, 0.2, saved.TotalReturn, 1e-9)
	assert.InDelta(t, 1.1, saved.SharpeRatio, 1e-9)
	assert.True(t, day1.Equal(saved.Start))
	assert.True(t, day1.AddDate(0, 0, 2).Equal(saved.End))

	require.Len(t, m.trades, 2)
	assert.Equal(t, "trade_1", m.trades[0].TradeID)
	assert.Equal(t, "01HTEST", m.trades[0].RunID)
	assert.Equal(t, "sell", m.trades[1].Action)

	require.Len(t, m.equity, 2)
	assert.InDelta(t, 0.199, m.equity[1].PnLPct, 1e-9)
}
