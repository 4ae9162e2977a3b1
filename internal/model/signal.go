package model

import "time"

// SignalType indicates the direction of a detected crossover.
type SignalType string

const (
	SignalBullish SignalType = "bullish"
	SignalBearish SignalType = "bearish"
)

// SignalSource identifies which moving-average family produced a signal.
type SignalSource string

const (
	SourceEMA SignalSource = "EMA"
	SourceSMA SignalSource = "SMA"
)

// Recommendation is the options direction derived from a signal.
type Recommendation string

const (
	RecommendCall Recommendation = "CALL"
	RecommendPut  Recommendation = "PUT"
)

// Crossover marks a date where the fast average crossed the slow average.
type Crossover struct {
	Date      time.Time
	Type      SignalType
	FastValue float64
	SlowValue float64
}

// RSICrosses holds the dates of recent RSI extreme-threshold crossings
// within the configured lookback window. Zero time means no crossing.
type RSICrosses struct {
	Overbought time.Time
	Oversold   time.Time
}

// SignalRecord is the terminal artifact of a scan for one symbol.
// Immutable after creation; consumed by ranking, notification, and the
// signal history log.
type SignalRecord struct {
	Symbol         string
	ScanDate       time.Time
	Type           SignalType
	Source         SignalSource
	Price          float64
	RSI            float64
	FastPeriod     int
	SlowPeriod     int
	FastValue      float64
	SlowValue      float64
	CrossDate      time.Time
	DaysSinceCross int
	Strength       float64
	Recommendation Recommendation
	RSIContext     RSICrosses
}
