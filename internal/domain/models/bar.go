package models

import "time"

// Bar represents a single OHLC bar with its rolling volatility attribute.
// Bars are immutable once produced upstream; Index is the ordinal position
// inside the series the bar belongs to.
type Bar struct {
	Index     int
	Timestamp time.Time
	Symbol    string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	ATR       float64 // rolling average true range; NaN until supplied
}

// Body returns the absolute body size of the bar.
func (b Bar) Body() float64 {
	d := b.Close - b.Open
	if d < 0 {
		return -d
	}
	return d
}

// Color returns +1 for a bull bar, -1 for a bear bar, 0 for a flat bar.
func (b Bar) Color() int {
	switch {
	case b.Close > b.Open:
		return 1
	case b.Close < b.Open:
		return -1
	default:
		return 0
	}
}
