package matching

import "time"

// Action is the trade direction of an order or fill.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// OrderType selects the execution model.
type OrderType string

const (
	MarketOrder OrderType = "market"
	LimitOrder  OrderType = "limit"
)

// Status tracks an order through its lifecycle:
//
//	pending -> filled
//	pending -> partially_filled -> filled
//	pending -> cancelled
//
// An order never re-enters pending after leaving it.
type Status string

const (
	StatusPending         Status = "pending"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusCancelled       Status = "cancelled"
)

// Order is created by the simulation loop and mutated only by the
// matching engine.
type Order struct {
	ID        string
	Symbol    string
	Action    Action
	Price     float64
	Volume    int64
	Type      OrderType
	Timestamp time.Time

	Status          Status
	FilledVolume    int64
	FilledPrice     float64
	TransactionCost float64
	Slippage        float64
	FillTime        time.Time
}

// NewOrder returns a pending order.
func NewOrder(id, symbol string, action Action, price float64, volume int64, typ OrderType, ts time.Time) *Order {
	return &Order{
		ID:        id,
		Symbol:    symbol,
		Action:    action,
		Price:     price,
		Volume:    volume,
		Type:      typ,
		Timestamp: ts,
		Status:    StatusPending,
	}
}

// Remaining is the unfilled volume.
func (o *Order) Remaining() int64 {
	return o.Volume - o.FilledVolume
}

// Trade is an immutable fill record. It is never mutated after the
// matching engine appends it.
type Trade struct {
	ID              string
	OrderID         string
	Symbol          string
	Action          Action
	Price           float64
	Volume          int64
	TransactionCost float64
	Slippage        float64
	Timestamp       time.Time
	OrderType       OrderType
}
