package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockSentry/internal/config"
	"StockSentry/internal/model"
)

type fakeProvider struct {
	bars map[string][]model.Bar
	errs map[string]error

	mu          sync.Mutex
	lastMinBars int
}

func (f *fakeProvider) GetStockData(_ context.Context, symbol string, _, _ time.Time, minBars int) ([]model.Bar, error) {
	f.mu.Lock()
	f.lastMinBars = minBars
	f.mu.Unlock()
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.bars[symbol], nil
}

func testConfig() config.ScanConfig {
	return config.ScanConfig{
		PriceMin: 10, PriceMax: 100,
		MinBars: 30, MaxCandidates: 20, MaxSignals: 20,
		Workers:   2,
		RSIPeriod: 14, RSIOversold: 30, RSIOverbought: 70, RSILookbackDays: 5,
		EMA: config.FamilyConfig{FastPeriod: 10, SlowPeriod: 20, LookbackDays: 5, HistoryDays: 60},
		SMA: config.FamilyConfig{FastPeriod: 49, SlowPeriod: 200, LookbackDays: 14, HistoryDays: 320},
	}
}

func flatBars(symbol string, price float64, count int, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := range bars {
		d := end.AddDate(0, 0, i-count+1)
		bars[i] = model.Bar{
			Symbol: symbol, Date: d,
			Open: price, High: price, Low: price, Close: price,
			Volume: 500000,
		}
	}
	return bars
}

// stepBars holds price flat then steps up for the last 'up' bars, which
// puts a fast-over-slow cross inside a short trailing window.
func stepBars(symbol string, base, stepped float64, count, up int, end time.Time) []model.Bar {
	bars := flatBars(symbol, base, count, end)
	for i := count - up; i < count; i++ {
		bars[i].Open = stepped
		bars[i].High = stepped
		bars[i].Low = stepped
		bars[i].Close = stepped
	}
	return bars
}

func scanDate() time.Time {
	return time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
}

func TestScanSymbolRejectsShortHistory(t *testing.T) {
	end := scanDate()
	p := &fakeProvider{bars: map[string][]model.Bar{"XYZ": flatBars("XYZ", 50, 20, end)}}
	s := NewScanner(p, nil, testConfig())

	rec, err := s.ScanSymbol(context.Background(), "XYZ", EMAFamily(s.Cfg), end)
	if !errors.Is(err, ErrTooFewBars) {
		t.Errorf("err = %v, want ErrTooFewBars", err)
	}
	if rec != nil {
		t.Error("rejected symbol should produce no record")
	}
}

func TestScanSymbolRejectsPriceOutsideRange(t *testing.T) {
	end := scanDate()
	p := &fakeProvider{bars: map[string][]model.Bar{"PRCY": flatBars("PRCY", 125, 60, end)}}
	s := NewScanner(p, nil, testConfig())

	_, err := s.ScanSymbol(context.Background(), "PRCY", EMAFamily(s.Cfg), end)
	if !errors.Is(err, ErrPriceOutside) {
		t.Errorf("err = %v, want ErrPriceOutside", err)
	}
}

func TestScanSymbolVolumeGate(t *testing.T) {
	end := scanDate()
	bars := flatBars("THIN", 50, 60, end)
	for i := range bars {
		bars[i].Volume = 1000
	}
	p := &fakeProvider{bars: map[string][]model.Bar{"THIN": bars}}

	cfg := testConfig()
	cfg.MinVolume = 100000
	s := NewScanner(p, nil, cfg)
	if _, err := s.ScanSymbol(context.Background(), "THIN", EMAFamily(cfg), end); err != nil {
		t.Errorf("volume gate fired while disabled: %v", err)
	}

	cfg.EnforceMinVolume = true
	s = NewScanner(p, nil, cfg)
	if _, err := s.ScanSymbol(context.Background(), "THIN", EMAFamily(cfg), end); !errors.Is(err, ErrVolumeTooLow) {
		t.Errorf("err = %v, want ErrVolumeTooLow", err)
	}
}

func TestScanSymbolNoCrossIsNotAnError(t *testing.T) {
	end := scanDate()
	p := &fakeProvider{bars: map[string][]model.Bar{"FLAT": flatBars("FLAT", 50, 60, end)}}
	s := NewScanner(p, nil, testConfig())

	rec, err := s.ScanSymbol(context.Background(), "FLAT", EMAFamily(s.Cfg), end)
	if err != nil {
		t.Fatalf("ScanSymbol: %v", err)
	}
	if rec != nil {
		t.Errorf("flat series should yield no signal, got %+v", rec)
	}
}

func TestScanSymbolDetectsBullishCross(t *testing.T) {
	end := scanDate()
	// 55 flat bars at 50, then 5 bars stepped to 60: the fast average
	// moves above the slow one on the first stepped bar.
	p := &fakeProvider{bars: map[string][]model.Bar{"STEP": stepBars("STEP", 50, 60, 60, 5, end)}}
	s := NewScanner(p, nil, testConfig())

	rec, err := s.ScanSymbol(context.Background(), "STEP", EMAFamily(s.Cfg), end)
	if err != nil {
		t.Fatalf("ScanSymbol: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a signal record")
	}
	if rec.Type != model.SignalBullish {
		t.Errorf("Type = %v, want bullish", rec.Type)
	}
	if rec.Recommendation != model.RecommendCall {
		t.Errorf("Recommendation = %v, want CALL", rec.Recommendation)
	}
	wantCross := end.AddDate(0, 0, -4)
	if !rec.CrossDate.Equal(wantCross) {
		t.Errorf("CrossDate = %v, want %v", rec.CrossDate, wantCross)
	}
	if rec.DaysSinceCross != 4 {
		t.Errorf("DaysSinceCross = %d, want 4", rec.DaysSinceCross)
	}
	if rec.Price != 60 {
		t.Errorf("Price = %.2f, want 60", rec.Price)
	}
	if rec.Strength <= 0 || rec.Strength > 100 {
		t.Errorf("Strength = %.2f outside (0, 100]", rec.Strength)
	}
}

func TestScanSymbolRequestsFamilyCoverage(t *testing.T) {
	end := scanDate()
	cfg := testConfig()

	p := &fakeProvider{bars: map[string][]model.Bar{"DIS": flatBars("DIS", 50, 250, end)}}
	s := NewScanner(p, nil, cfg)

	// The 200-day family needs slow+1 bars from the provider; the
	// configured floor alone would let a shallow cached series through.
	if _, err := s.ScanSymbol(context.Background(), "DIS", SMAFamily(cfg), end); err != nil {
		t.Fatalf("ScanSymbol: %v", err)
	}
	if p.lastMinBars != 201 {
		t.Errorf("SMA scan requested minBars = %d, want 201", p.lastMinBars)
	}

	if _, err := s.ScanSymbol(context.Background(), "DIS", EMAFamily(cfg), end); err != nil {
		t.Fatalf("ScanSymbol: %v", err)
	}
	if p.lastMinBars != cfg.MinBars {
		t.Errorf("EMA scan requested minBars = %d, want the %d floor", p.lastMinBars, cfg.MinBars)
	}
}

// haltingProvider serves bars normally during the prefilter pass, then
// cancels the scan on its trigger symbol's second call and fails every
// call made after cancellation.
type haltingProvider struct {
	bars    map[string][]model.Bar
	trigger string
	cancel  context.CancelFunc

	mu    sync.Mutex
	calls map[string]int
}

func (h *haltingProvider) GetStockData(ctx context.Context, symbol string, _, _ time.Time, _ int) ([]model.Bar, error) {
	h.mu.Lock()
	h.calls[symbol]++
	n := h.calls[symbol]
	h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == h.trigger && n == 2 {
		h.cancel()
		return nil, context.Canceled
	}
	return h.bars[symbol], nil
}

func TestScanKeepsPartialResultsOnCancel(t *testing.T) {
	end := scanDate()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &haltingProvider{
		bars: map[string][]model.Bar{
			"GOOD": stepBars("GOOD", 50, 60, 60, 5, end),
			"HALT": flatBars("HALT", 50, 60, end),
			"TAIL": stepBars("TAIL", 50, 60, 60, 5, end),
		},
		trigger: "HALT",
		cancel:  cancel,
		calls:   make(map[string]int),
	}

	cfg := testConfig()
	cfg.Workers = 1
	s := NewScanner(p, nil, cfg)

	records := s.Scan(ctx, []string{"GOOD", "HALT", "TAIL"}, EMAFamily(cfg), end)
	if len(records) != 1 {
		t.Fatalf("got %d records, want the 1 produced before cancellation", len(records))
	}
	if records[0].Symbol != "GOOD" {
		t.Errorf("Symbol = %q, want GOOD", records[0].Symbol)
	}
}

func TestScanSkipsFailedSymbols(t *testing.T) {
	end := scanDate()
	p := &fakeProvider{
		bars: map[string][]model.Bar{
			"GOOD": stepBars("GOOD", 50, 60, 60, 5, end),
			"FLAT": flatBars("FLAT", 50, 60, end),
		},
		errs: map[string]error{"DOWN": errors.New("sources exhausted")},
	}
	s := NewScanner(p, nil, testConfig())

	records := s.Scan(context.Background(), []string{"DOWN", "GOOD", "FLAT"}, EMAFamily(s.Cfg), end)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Symbol != "GOOD" {
		t.Errorf("Symbol = %q, want GOOD", records[0].Symbol)
	}
}

func TestScanCandidateCap(t *testing.T) {
	end := scanDate()
	bars := map[string][]model.Bar{}
	symbols := []string{"AA", "BB", "CC", "DD", "EE"}
	for _, sym := range symbols {
		bars[sym] = stepBars(sym, 50, 60, 60, 5, end)
	}
	p := &fakeProvider{bars: bars}

	cfg := testConfig()
	cfg.MaxCandidates = 2
	s := NewScanner(p, nil, cfg)

	records := s.Scan(context.Background(), symbols, EMAFamily(cfg), end)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 after the candidate cap", len(records))
	}
	if records[0].Symbol != "AA" || records[1].Symbol != "BB" {
		t.Errorf("cap should keep list order: got %s, %s", records[0].Symbol, records[1].Symbol)
	}
}

func TestRankOrderAndTruncation(t *testing.T) {
	records := []model.SignalRecord{
		{Symbol: "BBB", Strength: 62},
		{Symbol: "AAA", Strength: 62},
		{Symbol: "CCC", Strength: 88},
		{Symbol: "DDD", Strength: 40},
	}
	ranked := Rank(records, 3)
	if len(ranked) != 3 {
		t.Fatalf("got %d records, want 3", len(ranked))
	}
	want := []string{"CCC", "AAA", "BBB"}
	for i, sym := range want {
		if ranked[i].Symbol != sym {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Symbol, sym)
		}
	}
}
