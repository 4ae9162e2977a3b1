package model

import "time"

// Bar is a single daily OHLCV observation for a symbol.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Day returns the bar's trading date truncated to midnight UTC.
// Bars from different sources carry different intraday timestamps;
// comparisons and cache keys always use the day.
func (b Bar) Day() time.Time {
	return time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
}
