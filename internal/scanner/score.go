package scanner

import (
	"math"
	"time"

	"StockSentry/internal/model"
)

// Base strengths per moving-average family. SMA crosses of the 49/200
// class carry more weight than short-horizon EMA crosses.
const (
	baseStrengthEMA = 50.0
	baseStrengthSMA = 60.0

	priceSweetSpot   = 55.0
	priceBonusMax    = 5.0
	periodGapBonus   = 3.0
	periodGapCeiling = 10
)

// Score computes signal strength on a 0 to 100 scale. It is a pure
// function of the inputs; callers pass the RSI value at the latest bar
// and any threshold crossings observed in the recent window.
func Score(sigType model.SignalType, src model.SignalSource, price, rsi float64,
	crosses model.RSICrosses, fastPeriod, slowPeriod int, oversold, overbought float64) float64 {

	score := baseStrengthEMA
	if src == model.SourceSMA {
		score = baseStrengthSMA
	}

	// RSI confirmation. The branches are exclusive in this order:
	// current extreme reading beats a merely-moderate reading beats a
	// recent threshold crossing.
	switch sigType {
	case model.SignalBullish:
		if rsi < oversold {
			score += 20
		} else if rsi < oversold+10 {
			score += 10
		} else if !crosses.Oversold.IsZero() {
			score += 15
		}
		// An overbought reading contradicts a bullish cross regardless
		// of which branch above fired.
		if rsi > overbought {
			score -= 15
		}
	case model.SignalBearish:
		if rsi > overbought {
			score += 20
		} else if rsi > overbought-10 {
			score += 10
		} else if !crosses.Overbought.IsZero() {
			score += 15
		}
		if rsi < oversold {
			score -= 15
		}
	}

	// Prices near the middle of the tradable band score highest; the
	// bonus decays linearly to zero at the band edges and never goes
	// negative outside them.
	bonus := priceBonusMax * (1 - math.Abs(price-priceSweetSpot)/45.0)
	if bonus < 0 {
		bonus = 0
	}
	score += bonus

	// Tight period pairs react faster to regime changes.
	if slowPeriod-fastPeriod <= periodGapCeiling {
		score += periodGapBonus
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Category maps a strength value to its display bucket.
func Category(strength float64) string {
	switch {
	case strength >= 70:
		return "Strong"
	case strength >= 50:
		return "Moderate"
	default:
		return "Weak"
	}
}

// DaysSince reports whole days between a cross date and the scan date.
func DaysSince(cross, scan time.Time) int {
	return int(scan.Sub(cross).Hours() / 24)
}
