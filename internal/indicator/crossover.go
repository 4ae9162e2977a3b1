package indicator

import "StockSentry/internal/model"

// DetectCrossovers scans the trailing lookbackDays window of two aligned
// average series for sign changes in their difference and returns the
// events in order, most recent last. Dates where either series is
// undefined are skipped and do not consume the window. An empty result is
// the normal "no signal" case, not an error.
func DetectCrossovers(fast, slow Series, lookbackDays int) []model.Crossover {
	if lookbackDays <= 0 {
		return nil
	}
	n := len(fast)
	if len(slow) < n {
		n = len(slow)
	}

	// Indices where both averages are defined.
	defined := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if fast[i].Valid && slow[i].Valid {
			defined = append(defined, i)
		}
	}
	if len(defined) < 2 {
		return nil
	}

	// lookbackDays comparisons need lookbackDays+1 defined points.
	if len(defined) > lookbackDays+1 {
		defined = defined[len(defined)-lookbackDays-1:]
	}

	var events []model.Crossover
	for j := 1; j < len(defined); j++ {
		prev, cur := defined[j-1], defined[j]
		prevDiff := fast[prev].Value - slow[prev].Value
		curDiff := fast[cur].Value - slow[cur].Value

		switch {
		case prevDiff <= 0 && curDiff > 0:
			events = append(events, model.Crossover{
				Date:      fast[cur].Date,
				Type:      model.SignalBullish,
				FastValue: fast[cur].Value,
				SlowValue: slow[cur].Value,
			})
		case prevDiff >= 0 && curDiff < 0:
			events = append(events, model.Crossover{
				Date:      fast[cur].Date,
				Type:      model.SignalBearish,
				FastValue: fast[cur].Value,
				SlowValue: slow[cur].Value,
			})
		}
	}
	return events
}

// DetectRSICrosses reports the first oversold and overbought threshold
// crossings of the RSI within the trailing lookbackDays window.
func DetectRSICrosses(rsi Series, lookbackDays int, oversold, overbought float64) model.RSICrosses {
	var crosses model.RSICrosses

	defined := make([]int, 0, len(rsi))
	for i := range rsi {
		if rsi[i].Valid {
			defined = append(defined, i)
		}
	}
	if len(defined) < 2 {
		return crosses
	}
	if len(defined) > lookbackDays+1 {
		defined = defined[len(defined)-lookbackDays-1:]
	}

	for j := 1; j < len(defined); j++ {
		prev, cur := rsi[defined[j-1]].Value, rsi[defined[j]].Value
		if crosses.Overbought.IsZero() && cur > overbought && prev <= overbought {
			crosses.Overbought = rsi[defined[j]].Date
		}
		if crosses.Oversold.IsZero() && cur < oversold && prev >= oversold {
			crosses.Oversold = rsi[defined[j]].Date
		}
	}
	return crosses
}
