package cache

import (
	"path/filepath"
	"testing"
	"time"

	"StockSentry/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSaveAndRangeBars(t *testing.T) {
	s := openTestStore(t)

	bars := []model.Bar{
		{Symbol: "AAPL", Date: day(2026, 8, 24), Open: 50, High: 51, Low: 49, Close: 50.5, Volume: 1000},
		{Symbol: "AAPL", Date: day(2026, 8, 25), Open: 50.5, High: 52, Low: 50, Close: 51.2, Volume: 1100},
		{Symbol: "AAPL", Date: day(2026, 8, 26), Open: 51.2, High: 53, Low: 51, Close: 52.8, Volume: 1200},
	}
	if err := s.SaveBars(bars); err != nil {
		t.Fatalf("save bars: %v", err)
	}

	got, err := s.BarRange("AAPL", day(2026, 8, 24), day(2026, 8, 25))
	if err != nil {
		t.Fatalf("bar range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bars in range, got %d", len(got))
	}
	if got[0].Close != 50.5 || got[1].Close != 51.2 {
		t.Errorf("unexpected closes: %v, %v", got[0].Close, got[1].Close)
	}
	if !got[0].Date.Before(got[1].Date) {
		t.Error("bars must come back ascending by date")
	}
}

func TestSaveBars_LastWriteWins(t *testing.T) {
	s := openTestStore(t)

	d := day(2026, 8, 24)
	first := []model.Bar{{Symbol: "MSFT", Date: d, Open: 1, High: 2, Low: 1, Close: 1.5, Volume: 10}}
	second := []model.Bar{{Symbol: "MSFT", Date: d, Open: 1, High: 2, Low: 1, Close: 1.8, Volume: 12}}

	if err := s.SaveBars(first); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBars(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.BarRange("MSFT", d, d)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("conflicting writes must not duplicate, got %d rows", len(got))
	}
	if got[0].Close != 1.8 {
		t.Errorf("expected last write to win, got close=%v", got[0].Close)
	}
}

func TestRecordSignals_RerunOverwrites(t *testing.T) {
	s := openTestStore(t)

	rec := model.SignalRecord{
		Symbol:         "NKE",
		ScanDate:       day(2026, 8, 28),
		Type:           model.SignalBullish,
		Source:         model.SourceEMA,
		Price:          58,
		RSI:            28,
		FastPeriod:     10,
		SlowPeriod:     20,
		CrossDate:      day(2026, 8, 27),
		Strength:       74.7,
		Recommendation: model.RecommendCall,
	}
	if err := s.RecordSignals("scan-1", []model.SignalRecord{rec}); err != nil {
		t.Fatalf("record: %v", err)
	}

	rec.Strength = 80
	if err := s.RecordSignals("scan-2", []model.SignalRecord{rec}); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	got, err := s.RecentSignals(7)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("same-day re-scan must overwrite, got %d rows", len(got))
	}
	if got[0].Strength != 80 {
		t.Errorf("expected updated strength 80, got %v", got[0].Strength)
	}
	if got[0].Type != model.SignalBullish || got[0].Recommendation != model.RecommendCall {
		t.Errorf("round-trip lost fields: %+v", got[0])
	}
}

func TestSaveIndicator(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveIndicator("AAPL", day(2026, 8, 26), "ema", 10, 52.4); err != nil {
		t.Fatalf("save indicator: %v", err)
	}
	// Overwrite same key.
	if err := s.SaveIndicator("AAPL", day(2026, 8, 26), "ema", 10, 52.5); err != nil {
		t.Fatalf("overwrite indicator: %v", err)
	}
}
