// Package backtest drives the bar-by-bar replay: it turns strategy
// signals into validated orders, submits them to the matching engine,
// books the resulting trades into the ledger, and snapshots account
// state once per bar.
package backtest

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tradekit/backtest/account"
	"github.com/tradekit/backtest/market"
	"github.com/tradekit/backtest/matching"
	"github.com/tradekit/backtest/metrics"
	"github.com/tradekit/backtest/strategy"
)

// Configuration errors surfaced by Initialize and Run. These are fatal:
// no partial run is attempted.
var (
	ErrNoData     = errors.New("no historical data loaded")
	ErrNoStrategy = errors.New("no strategy set")
)

// Params is the configuration surface of a run, injected at
// construction. The engine holds no process-wide mutable configuration.
type Params struct {
	InitialCash         float64
	TransactionCostRate float64
	SlippageRate        float64
	StampTaxRate        float64
	MaxPositionPct      float64
	RiskFreeRate        float64
}

func DefaultParams() Params {
	return Params{
		InitialCash:         1_000_000,
		TransactionCostRate: 0.0003,
		SlippageRate:        0.0001,
		StampTaxRate:        0.001,
		MaxPositionPct:      0.1,
		RiskFreeRate:        0.03,
	}
}

// orderSeed seeds the order-ID suffix generator. Fixed so that a reset
// run replays with identical order IDs, keeping trades byte-comparable
// across runs.
const orderSeed = 0x74726164

// Engine is the simulation loop. State machine:
//
//	Uninitialized -> Initialized -> Running -> Completed
//
// Reset returns a Running or Completed engine to Uninitialized. Each
// run owns its matcher and ledger exclusively; independent runs share
// no mutable state.
type Engine struct {
	log    *slog.Logger
	params Params

	matcher *matching.Engine
	ledger  *Ledger
	perf    *metrics.Engine

	bars  []market.Bar
	strat strategy.Strategy

	initialized bool
	running     bool
	completed   bool

	orderSeq int
	rng      *rand.Rand

	results Result
}

func NewEngine(params Params, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	perf := metrics.NewEngine()
	perf.RiskFreeRate = params.RiskFreeRate

	matcher := matching.NewEngine(log)
	matcher.SetParams(matching.Params{
		TransactionCostRate: params.TransactionCostRate,
		SlippageRate:        params.SlippageRate,
	})

	return &Engine{
		log:     log,
		params:  params,
		matcher: matcher,
		ledger:  NewLedger(params.InitialCash),
		perf:    perf,
		rng:     rand.New(rand.NewSource(orderSeed)),
	}
}

// SetData loads the historical bars. Bars must be pre-sorted ascending
// by timestamp; the loop never reorders them.
func (e *Engine) SetData(bars []market.Bar) {
	e.bars = bars
	e.initialized = false
}

// SetStrategy sets the strategy driven by the loop.
func (e *Engine) SetStrategy(s strategy.Strategy) {
	e.strat = s
	e.initialized = false
}

// Initialize validates inputs, resets all run state, hands the strategy
// its sizing parameters and the bar history, and records the bar-0
// equity sample.
func (e *Engine) Initialize(bars []market.Bar, strat strategy.Strategy) error {
	if len(bars) == 0 {
		return fmt.Errorf("initialize: %w", ErrNoData)
	}
	if strat == nil {
		return fmt.Errorf("initialize: %w", ErrNoStrategy)
	}

	e.bars = bars
	e.strat = strat
	e.Reset()

	// Sizing and validation must agree on fees, so the loop pushes its
	// own rates into the strategy.
	if ps, ok := strat.(interface{ SetParams(strategy.Params) }); ok {
		ps.SetParams(strategy.Params{
			InitialCash:         e.params.InitialCash,
			TransactionCostRate: e.params.TransactionCostRate,
			SlippageRate:        e.params.SlippageRate,
			MaxPositionPct:      e.params.MaxPositionPct,
		})
	}

	strat.Initialize(bars, e.ledger.State())

	e.recordState(e.bars[0].Timestamp)

	e.initialized = true
	e.log.Info("backtest initialized",
		"bars", len(bars),
		"strategy", strat.Name(),
		"initial_cash", e.params.InitialCash,
	)
	return nil
}

// Run replays every bar in order. It auto-initializes when needed.
// Any failure propagates to the caller after the running flag is
// cleared; a failed run is never partially valid.
func (e *Engine) Run() error {
	if !e.initialized {
		if err := e.Initialize(e.bars, e.strat); err != nil {
			return err
		}
	}

	e.running = true
	defer func() { e.running = false }()

	for _, bar := range e.bars {
		e.step(bar)
	}

	e.completed = true
	e.recordState(e.bars[len(e.bars)-1].Timestamp)
	e.results.Metrics = e.perf.Compute(e.results.AccountHistory, e.results.Trades, nil)

	e.log.Info("backtest completed",
		"trades", len(e.results.Trades),
		"final_equity", e.ledger.State().TotalEquity,
	)
	return nil
}

// step processes a single bar: pre-trade snapshot, strategy signals in
// returned order, order validation and matching, ledger updates,
// mark-to-market, post-trade snapshot.
func (e *Engine) step(bar market.Bar) {
	e.recordState(bar.Timestamp)

	signals := e.strat.GenerateSignals(bar, e.ledger.State())
	for _, sig := range signals {
		e.results.Signals = append(e.results.Signals, sig)

		order := e.createOrder(sig, bar)
		if order == nil {
			continue
		}
		e.results.Orders = append(e.results.Orders, order)

		for _, trade := range e.matcher.AddOrder(order) {
			e.ledger.ApplyTrade(trade, e.params.StampTaxRate)
			e.results.Trades = append(e.results.Trades, trade)
		}
	}

	e.ledger.MarkToMarket(bar)
	e.recordState(bar.Timestamp)
}

// createOrder resolves price and volume for a signal and applies the
// funds and holdings checks. A rejected signal is logged as a warning
// and produces no order; the run continues.
func (e *Engine) createOrder(sig strategy.Signal, bar market.Bar) *matching.Order {
	price := sig.Price
	if price == 0 {
		price = bar.Close
	}

	volume := sig.Volume
	if volume == 0 {
		volume = e.strat.CalculatePositionSize(e.ledger.State(), price)
	}
	if volume <= 0 {
		e.log.Warn("signal sized to zero volume, skipping",
			"symbol", sig.Symbol, "action", string(sig.Action), "price", price)
		return nil
	}

	switch sig.Action {
	case matching.Buy:
		required := price * float64(volume) * (1 + e.params.TransactionCostRate + e.params.SlippageRate)
		if required > e.ledger.Cash() {
			e.log.Warn("insufficient funds, dropping buy order",
				"symbol", sig.Symbol, "required", required, "cash", e.ledger.Cash())
			return nil
		}

	case matching.Sell:
		pos, ok := e.ledger.Position(sig.Symbol)
		if !ok || pos.Volume < volume {
			e.log.Warn("insufficient holdings, dropping sell order",
				"symbol", sig.Symbol, "requested", volume, "held", pos.Volume)
			return nil
		}
	}

	orderType := sig.OrderType
	if orderType == "" {
		orderType = matching.MarketOrder
	}

	e.orderSeq++
	id := fmt.Sprintf("order_%d_%08x", e.orderSeq, e.rng.Uint32())

	return matching.NewOrder(id, sig.Symbol, sig.Action, price, volume, orderType, bar.Timestamp)
}

// recordState appends one equity sample and one positions snapshot to
// the append-only histories.
func (e *Engine) recordState(ts time.Time) {
	state := e.ledger.State()

	e.results.AccountHistory = append(e.results.AccountHistory, account.EquitySample{
		Timestamp:   ts,
		Cash:        state.Cash,
		TotalEquity: state.TotalEquity,
		PnL:         state.PnL,
		PnLPct:      state.PnLPct,
	})
	e.results.PositionsHistory = append(e.results.PositionsHistory, account.PositionsSnapshot{
		Timestamp: ts,
		Positions: state.Positions,
	})
}

// Reset returns the engine to Uninitialized: fresh ledger and matcher,
// empty result bundle, order sequence and ID suffixes rewound. Data and
// strategy are kept so the same inputs can be replayed.
func (e *Engine) Reset() {
	e.initialized = false
	e.running = false
	e.completed = false

	e.ledger.Reset(e.params.InitialCash)
	e.matcher.Reset()
	e.matcher.SetParams(matching.Params{
		TransactionCostRate: e.params.TransactionCostRate,
		SlippageRate:        e.params.SlippageRate,
	})

	e.orderSeq = 0
	e.rng = rand.New(rand.NewSource(orderSeed))
	e.results = Result{}

	if e.strat != nil {
		e.strat.Reset()
	}
}

// Results returns the run's result bundle. Valid after Run completes.
func (e *Engine) Results() Result {
	return e.results
}

// Account returns a copy of the current account state.
func (e *Engine) Account() account.State {
	return e.ledger.State()
}

// Completed reports whether the last Run finished.
func (e *Engine) Completed() bool {
	return e.completed
}
