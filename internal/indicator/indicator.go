package indicator

import (
	"errors"
	"time"

	"StockSentry/internal/model"
)

// ErrInsufficientData is reported when a series is too short for the
// requested period. It is a result, not a control-flow exception: callers
// gate on it before asking for a crossover scan.
var ErrInsufficientData = errors.New("insufficient data")

// Point is one dated indicator value. Valid is false within the warm-up
// prefix where the indicator is undefined.
type Point struct {
	Date  time.Time
	Value float64
	Valid bool
}

// Series is an ordered sequence of indicator points aligned 1:1 with the
// bar series it derives from: same length, same date order.
type Series []Point

// Last returns the most recent defined point.
func (s Series) Last() (Point, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i], true
		}
	}
	return Point{}, false
}

func closes(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SMA computes the simple moving average of the closing prices.
// The first period-1 points are undefined.
func SMA(bars []model.Bar, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return nil, ErrInsufficientData
	}

	prices := closes(bars)
	s := make(Series, len(bars))
	var sum float64
	for i, b := range bars {
		sum += prices[i]
		if i >= period {
			sum -= prices[i-period]
		}
		s[i] = Point{Date: b.Day()}
		if i >= period-1 {
			s[i].Value = sum / float64(period)
			s[i].Valid = true
		}
	}
	return s, nil
}

// EMA computes the exponential moving average of the closing prices,
// seeded with the simple average of the first period closes and smoothed
// with factor 2/(period+1). The first period-1 points are undefined.
func EMA(bars []model.Bar, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return nil, ErrInsufficientData
	}

	prices := closes(bars)
	k := 2.0 / (float64(period) + 1.0)
	s := make(Series, len(bars))

	var seed float64
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	seed /= float64(period)

	prev := seed
	for i, b := range bars {
		s[i] = Point{Date: b.Day()}
		switch {
		case i < period-1:
			// warm-up
		case i == period-1:
			s[i].Value = seed
			s[i].Valid = true
		default:
			prev = prev + k*(prices[i]-prev)
			s[i].Value = prev
			s[i].Valid = true
		}
	}
	return s, nil
}

// RSI computes the Wilder-smoothed relative strength index of the closing
// prices, bounded to [0, 100]. The first period points are undefined.
func RSI(bars []model.Bar, period int) (Series, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return nil, ErrInsufficientData
	}

	prices := closes(bars)
	s := make(Series, len(bars))
	for i, b := range bars {
		s[i] = Point{Date: b.Day()}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	s[period].Value = rsiValue(avgGain, avgLoss)
	s[period].Valid = true

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		s[i].Value = rsiValue(avgGain, avgLoss)
		s[i].Valid = true
	}
	return s, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
