package market

import "time"

// Bar is one OHLCV observation for a fixed interval.
type Bar struct {
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Sorted reports whether bars are in ascending timestamp order.
// The replay loop assumes pre-sorted input and never reorders.
func Sorted(bars []Bar) bool {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp.Before(bars[i-1].Timestamp) {
			return false
		}
	}
	return true
}
