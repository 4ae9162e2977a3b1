package scanner

import (
	"math"
	"testing"
	"time"

	"StockSentry/internal/model"
)

func TestScoreBullishOversold(t *testing.T) {
	// EMA base 50, +20 for RSI below 30, price bonus 5*(1-3/45).
	got := Score(model.SignalBullish, model.SourceEMA, 58, 28,
		model.RSICrosses{}, 10, 25, 30, 70)
	want := 50.0 + 20.0 + 5.0*(1-3.0/45.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %.4f, want %.4f", got, want)
	}
	if Category(got) != "Strong" {
		t.Errorf("Category(%.2f) = %q, want Strong", got, Category(got))
	}
}

func TestScoreRSIBranches(t *testing.T) {
	recent := model.RSICrosses{Oversold: time.Now()}
	tests := []struct {
		name    string
		rsi     float64
		crosses model.RSICrosses
		rsiPart float64
	}{
		{"current oversold", 25, model.RSICrosses{}, 20},
		{"moderate low", 35, model.RSICrosses{}, 10},
		{"recent cross only", 45, recent, 15},
		{"no confirmation", 55, model.RSICrosses{}, 0},
		{"moderate beats stale cross", 35, recent, 10},
		{"overbought contradiction", 75, model.RSICrosses{}, -15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Price 55 pins the bonus at exactly 5; gap 10 adds 3.
			got := Score(model.SignalBullish, model.SourceEMA, 55, tt.rsi,
				tt.crosses, 10, 20, 30, 70)
			want := 50 + tt.rsiPart + 5 + 3
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("Score = %.4f, want %.4f", got, want)
			}
		})
	}
}

func TestScoreBearishMirror(t *testing.T) {
	bull := Score(model.SignalBullish, model.SourceSMA, 55, 25,
		model.RSICrosses{}, 49, 200, 30, 70)
	bear := Score(model.SignalBearish, model.SourceSMA, 55, 75,
		model.RSICrosses{}, 49, 200, 30, 70)
	if math.Abs(bull-bear) > 1e-9 {
		t.Errorf("mirrored scores differ: bullish %.4f, bearish %.4f", bull, bear)
	}
}

func TestScorePriceBonus(t *testing.T) {
	at := func(price float64) float64 {
		return Score(model.SignalBullish, model.SourceEMA, price, 50,
			model.RSICrosses{}, 10, 25, 30, 70)
	}
	if d := at(55) - at(10); math.Abs(d-5) > 1e-9 {
		t.Errorf("bonus at sweet spot vs band edge = %.4f, want 5", d)
	}
	if at(30) >= at(55) || at(30) <= at(10) {
		t.Errorf("bonus should increase toward 55: f(10)=%.2f f(30)=%.2f f(55)=%.2f", at(10), at(30), at(55))
	}
	// Outside the band the bonus clamps at zero rather than penalizing.
	if d := at(150) - at(10); math.Abs(d) > 1e-9 {
		t.Errorf("out-of-band price should match zero-bonus edge, diff %.4f", d)
	}
}

func TestScoreBounds(t *testing.T) {
	// Maximal stacking stays within 100.
	hi := Score(model.SignalBullish, model.SourceSMA, 55, 25,
		model.RSICrosses{}, 49, 55, 30, 70)
	if hi > 100 {
		t.Errorf("score %.2f exceeds 100", hi)
	}
	lo := Score(model.SignalBullish, model.SourceEMA, 200, 95,
		model.RSICrosses{}, 10, 25, 30, 70)
	if lo < 0 {
		t.Errorf("score %.2f below 0", lo)
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		strength float64
		want     string
	}{
		{85, "Strong"},
		{70, "Strong"},
		{69.9, "Moderate"},
		{50, "Moderate"},
		{49.9, "Weak"},
		{0, "Weak"},
	}
	for _, tt := range tests {
		if got := Category(tt.strength); got != tt.want {
			t.Errorf("Category(%.1f) = %q, want %q", tt.strength, got, tt.want)
		}
	}
}
