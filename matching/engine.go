// Package matching simulates execution of orders against a synthetic
// market: market orders fill immediately with directional slippage,
// limit orders rest in a price-sorted book and match at the resting
// order's price.
package matching

import (
	"fmt"
	"log/slog"
	"sort"
)

// Params configures fill economics. Rates apply to all subsequent fills.
type Params struct {
	TransactionCostRate float64
	SlippageRate        float64
}

// Engine turns orders into zero or more trades and maintains the
// resting limit book. It is owned by a single backtest run; Reset
// clears all state between independent runs.
type Engine struct {
	log    *slog.Logger
	params Params

	// Resting limit orders. Buys sorted descending by price, sells
	// ascending; ties keep insertion order (price priority only,
	// time priority approximated by book order).
	buys  []*Order
	sells []*Order

	trades   []Trade
	tradeSeq int
}

// NewEngine returns an engine with zeroed rates. Call SetParams to
// configure costs before submitting orders.
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// SetParams replaces the fill economics for all subsequent fills.
func (e *Engine) SetParams(p Params) {
	e.params = p
}

// AddOrder submits an order. Market orders produce exactly one trade.
// Limit orders join the book and produce zero or more trades against
// crossing counter-orders. An unsupported order type is logged and
// returns nil; callers treat nil as "no trade", not as an error.
func (e *Engine) AddOrder(o *Order) []Trade {
	switch o.Type {
	case MarketOrder:
		return []Trade{e.matchMarket(o)}
	case LimitOrder:
		e.rest(o)
		e.sortBook()
		return e.matchLimit(o)
	default:
		e.log.Error("unsupported order type", "order_id", o.ID, "type", string(o.Type))
		return nil
	}
}

// matchMarket fills unconditionally at price +/- slippage. The order
// never enters the resting book.
func (e *Engine) matchMarket(o *Order) Trade {
	slippage := o.Price * e.params.SlippageRate

	// Directional slippage always costs the taker.
	fillPrice := o.Price + slippage
	if o.Action == Sell {
		fillPrice = o.Price - slippage
	}

	cost := fillPrice * float64(o.Volume) * e.params.TransactionCostRate

	o.Status = StatusFilled
	o.FilledVolume = o.Volume
	o.FilledPrice = fillPrice
	o.TransactionCost = cost
	o.Slippage = slippage
	o.FillTime = o.Timestamp

	t := Trade{
		ID:              e.nextTradeID(),
		OrderID:         o.ID,
		Symbol:          o.Symbol,
		Action:          o.Action,
		Price:           fillPrice,
		Volume:          o.Volume,
		TransactionCost: cost,
		Slippage:        slippage,
		Timestamp:       o.Timestamp,
		OrderType:       o.Type,
	}
	e.trades = append(e.trades, t)
	return t
}

// matchLimit matches the aggressor against the opposite side while the
// book crosses. The fill price is always the resting order's price.
func (e *Engine) matchLimit(o *Order) []Trade {
	var trades []Trade

	counter := &e.sells
	crosses := func(resting *Order) bool { return resting.Price <= o.Price }
	if o.Action == Sell {
		counter = &e.buys
		crosses = func(resting *Order) bool { return resting.Price >= o.Price }
	}

	i := 0
	for i < len(*counter) && o.Remaining() > 0 {
		resting := (*counter)[i]
		if !crosses(resting) {
			break
		}

		fillVolume := min(o.Remaining(), resting.Remaining())
		fillPrice := resting.Price
		cost := fillPrice * float64(fillVolume) * e.params.TransactionCostRate

		o.FilledVolume += fillVolume
		o.FilledPrice = fillPrice
		o.TransactionCost += cost

		resting.FilledVolume += fillVolume
		resting.FilledPrice = fillPrice
		resting.TransactionCost += cost

		t := Trade{
			ID:              e.nextTradeID(),
			OrderID:         o.ID,
			Symbol:          o.Symbol,
			Action:          o.Action,
			Price:           fillPrice,
			Volume:          fillVolume,
			TransactionCost: cost,
			Timestamp:       o.Timestamp,
			OrderType:       o.Type,
		}
		trades = append(trades, t)
		e.trades = append(e.trades, t)

		if resting.Remaining() == 0 {
			resting.Status = StatusFilled
			resting.FillTime = o.Timestamp
			*counter = append((*counter)[:i], (*counter)[i+1:]...)
		} else {
			resting.Status = StatusPartiallyFilled
			i++
		}
	}

	if o.FilledVolume > 0 {
		if o.Remaining() == 0 {
			o.Status = StatusFilled
			o.FillTime = o.Timestamp
			e.remove(o.Action, o.ID)
		} else {
			o.Status = StatusPartiallyFilled
		}
	}

	return trades
}

// CancelOrder removes a still-resting order from either side. It
// reports false if the order is already filled or absent.
func (e *Engine) CancelOrder(orderID string) bool {
	for _, side := range [...]Action{Buy, Sell} {
		if o := e.take(side, orderID); o != nil {
			o.Status = StatusCancelled
			return true
		}
	}
	e.log.Error("cancel: order not resting", "order_id", orderID)
	return false
}

// Trades returns the accumulated fills for this run.
func (e *Engine) Trades() []Trade {
	return e.trades
}

// Book returns the resting orders on one side, best price first.
func (e *Engine) Book(side Action) []*Order {
	if side == Buy {
		return e.buys
	}
	return e.sells
}

// Reset clears both book sides and the trade history. Used between
// independent runs.
func (e *Engine) Reset() {
	e.buys = nil
	e.sells = nil
	e.trades = nil
	e.tradeSeq = 0
}

func (e *Engine) rest(o *Order) {
	if o.Action == Buy {
		e.buys = append(e.buys, o)
	} else {
		e.sells = append(e.sells, o)
	}
}

func (e *Engine) sortBook() {
	// Stable so that equal prices keep insertion order.
	sort.SliceStable(e.buys, func(i, j int) bool { return e.buys[i].Price > e.buys[j].Price })
	sort.SliceStable(e.sells, func(i, j int) bool { return e.sells[i].Price < e.sells[j].Price })
}

func (e *Engine) take(side Action, orderID string) *Order {
	book := &e.buys
	if side == Sell {
		book = &e.sells
	}
	for i, o := range *book {
		if o.ID == orderID {
			*book = append((*book)[:i], (*book)[i+1:]...)
			return o
		}
	}
	return nil
}

func (e *Engine) remove(side Action, orderID string) {
	e.take(side, orderID)
}

// nextTradeID is a run-local sequence. Identical inputs replayed after
// Reset produce identical trade IDs, which keeps full runs comparable
// byte for byte.
func (e *Engine) nextTradeID() string {
	e.tradeSeq++
	return fmt.Sprintf("trade_%d", e.tradeSeq)
}
