package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"StockSentry/internal/config"
	"StockSentry/internal/indicator"
	"StockSentry/internal/model"
)

// Gate rejections. A rejected symbol produced no signal because it was
// ineligible, which is distinct from an eligible symbol with no cross.
var (
	ErrTooFewBars   = errors.New("not enough price history")
	ErrPriceOutside = errors.New("price outside tradable range")
	ErrVolumeTooLow = errors.New("average volume below minimum")
	ErrIndicatorGap = errors.New("history too short for indicators")
)

// DataProvider supplies validated daily bars. minBars is the coverage
// the caller needs from the range; providers treat weaker cached data
// as a miss. Satisfied by marketdata.Manager.
type DataProvider interface {
	GetStockData(ctx context.Context, symbol string, start, end time.Time, minBars int) ([]model.Bar, error)
}

// IndicatorStore persists computed indicator values for later inspection.
// Optional; a nil store disables persistence.
type IndicatorStore interface {
	SaveIndicator(symbol string, date time.Time, indicator string, period int, value float64) error
}

// Family describes one moving-average scan configuration.
type Family struct {
	Source       model.SignalSource
	FastPeriod   int
	SlowPeriod   int
	LookbackDays int
	HistoryDays  int
}

// EMAFamily builds the exponential-average family from config.
func EMAFamily(cfg config.ScanConfig) Family {
	return Family{
		Source:       model.SourceEMA,
		FastPeriod:   cfg.EMA.FastPeriod,
		SlowPeriod:   cfg.EMA.SlowPeriod,
		LookbackDays: cfg.EMA.LookbackDays,
		HistoryDays:  cfg.EMA.HistoryDays,
	}
}

// SMAFamily builds the simple-average family from config.
func SMAFamily(cfg config.ScanConfig) Family {
	return Family{
		Source:       model.SourceSMA,
		FastPeriod:   cfg.SMA.FastPeriod,
		SlowPeriod:   cfg.SMA.SlowPeriod,
		LookbackDays: cfg.SMA.LookbackDays,
		HistoryDays:  cfg.SMA.HistoryDays,
	}
}

// Scanner runs crossover scans over a candidate universe.
type Scanner struct {
	Data  DataProvider
	Store IndicatorStore
	Cfg   config.ScanConfig
}

// NewScanner wires a scanner. store may be nil.
func NewScanner(data DataProvider, store IndicatorStore, cfg config.ScanConfig) *Scanner {
	return &Scanner{Data: data, Store: store, Cfg: cfg}
}

// requiredBars is the coverage a family needs from the data provider:
// the configured floor, or enough bars to warm up the slow average,
// whichever is larger. The 200-day family must never be served the
// shallow series a 20-day scan left in the cache.
func (s *Scanner) requiredBars(fam Family) int {
	need := fam.SlowPeriod + 1
	if s.Cfg.MinBars > need {
		need = s.Cfg.MinBars
	}
	return need
}

func (s *Scanner) average(series indicator.Series, symbol, name string, period int) {
	if s.Store == nil {
		return
	}
	if p, ok := series.Last(); ok {
		if err := s.Store.SaveIndicator(symbol, p.Date, name, period, p.Value); err != nil {
			log.Printf("[WARN] persist %s(%d) for %s: %v", name, period, symbol, err)
		}
	}
}

// ScanSymbol evaluates one symbol against one family. Returns (nil, nil)
// when the symbol is eligible but produced no cross in the lookback
// window, and an error when an eligibility gate rejected it or data could
// not be obtained.
func (s *Scanner) ScanSymbol(ctx context.Context, symbol string, fam Family, scanDate time.Time) (*model.SignalRecord, error) {
	start := scanDate.AddDate(0, 0, -fam.HistoryDays)
	bars, err := s.Data.GetStockData(ctx, symbol, start, scanDate, s.requiredBars(fam))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	if len(bars) < s.Cfg.MinBars {
		return nil, fmt.Errorf("%s has %d bars: %w", symbol, len(bars), ErrTooFewBars)
	}

	latest := bars[len(bars)-1]
	if latest.Close < s.Cfg.PriceMin || latest.Close > s.Cfg.PriceMax {
		return nil, fmt.Errorf("%s at $%.2f: %w", symbol, latest.Close, ErrPriceOutside)
	}
	if s.Cfg.EnforceMinVolume && averageVolume(bars) < s.Cfg.MinVolume {
		return nil, fmt.Errorf("%s: %w", symbol, ErrVolumeTooLow)
	}

	var fast, slow indicator.Series
	switch fam.Source {
	case model.SourceEMA:
		fast, err = indicator.EMA(bars, fam.FastPeriod)
		if err == nil {
			slow, err = indicator.EMA(bars, fam.SlowPeriod)
		}
	default:
		fast, err = indicator.SMA(bars, fam.FastPeriod)
		if err == nil {
			slow, err = indicator.SMA(bars, fam.SlowPeriod)
		}
	}
	if err != nil {
		if errors.Is(err, indicator.ErrInsufficientData) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrIndicatorGap)
		}
		return nil, fmt.Errorf("%s indicators: %w", symbol, err)
	}

	name := string(fam.Source)
	s.average(fast, symbol, name, fam.FastPeriod)
	s.average(slow, symbol, name, fam.SlowPeriod)

	events := indicator.DetectCrossovers(fast, slow, fam.LookbackDays)
	if len(events) == 0 {
		return nil, nil
	}
	cross := events[len(events)-1]

	// RSI is confirmation only. When the history is too short for it the
	// signal still stands, scored from a neutral reading.
	rsiValue := 50.0
	var crosses model.RSICrosses
	if rsiSeries, rerr := indicator.RSI(bars, s.Cfg.RSIPeriod); rerr == nil {
		if p, ok := rsiSeries.Last(); ok {
			rsiValue = p.Value
		}
		crosses = indicator.DetectRSICrosses(rsiSeries, s.Cfg.RSILookbackDays, s.Cfg.RSIOversold, s.Cfg.RSIOverbought)
		s.average(rsiSeries, symbol, "RSI", s.Cfg.RSIPeriod)
	}

	rec := model.RecommendCall
	if cross.Type == model.SignalBearish {
		rec = model.RecommendPut
	}

	return &model.SignalRecord{
		Symbol:         symbol,
		ScanDate:       scanDate,
		Type:           cross.Type,
		Source:         fam.Source,
		Price:          latest.Close,
		RSI:            rsiValue,
		FastPeriod:     fam.FastPeriod,
		SlowPeriod:     fam.SlowPeriod,
		FastValue:      cross.FastValue,
		SlowValue:      cross.SlowValue,
		CrossDate:      cross.Date,
		DaysSinceCross: DaysSince(cross.Date, scanDate),
		Strength: Score(cross.Type, fam.Source, latest.Close, rsiValue, crosses,
			fam.FastPeriod, fam.SlowPeriod, s.Cfg.RSIOversold, s.Cfg.RSIOverbought),
		Recommendation: rec,
		RSIContext:     crosses,
	}, nil
}

// Scan runs a full family scan over the candidate symbols: a sequential
// price prefilter capped at MaxCandidates, then a concurrent full scan of
// the survivors. Symbols whose data cannot be obtained are logged and
// skipped; the scan always returns whatever it found.
func (s *Scanner) Scan(ctx context.Context, symbols []string, fam Family, scanDate time.Time) []model.SignalRecord {
	candidates := s.prefilter(ctx, symbols, fam, scanDate)
	log.Printf("[INFO] %s scan: %d of %d symbols passed the prefilter",
		fam.Source, len(candidates), len(symbols))

	workers := s.Cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan *model.SignalRecord, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				rec, err := s.ScanSymbol(ctx, sym, fam, scanDate)
				if err != nil {
					log.Printf("[WARN] skipping %v", err)
					continue
				}
				if rec != nil {
					results <- rec
				}
			}
		}()
	}

feed:
	for _, sym := range candidates {
		select {
		case jobs <- sym:
		case <-ctx.Done():
			log.Printf("[WARN] %s scan interrupted: %v", fam.Source, ctx.Err())
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var records []model.SignalRecord
	for rec := range results {
		records = append(records, *rec)
	}
	return Rank(records, s.Cfg.MaxSignals)
}

// prefilter keeps symbols whose latest close falls inside the price band,
// up to MaxCandidates. The walk is sequential so cache hits from the
// prefilter serve the full scan.
func (s *Scanner) prefilter(ctx context.Context, symbols []string, fam Family, scanDate time.Time) []string {
	start := scanDate.AddDate(0, 0, -fam.HistoryDays)
	var out []string
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		if len(out) >= s.Cfg.MaxCandidates {
			break
		}
		bars, err := s.Data.GetStockData(ctx, sym, start, scanDate, s.requiredBars(fam))
		if err != nil || len(bars) == 0 {
			continue
		}
		price := bars[len(bars)-1].Close
		if price >= s.Cfg.PriceMin && price <= s.Cfg.PriceMax {
			out = append(out, sym)
		}
	}
	return out
}

// Rank orders records by strength descending, breaking ties by symbol,
// and truncates to max.
func Rank(records []model.SignalRecord, max int) []model.SignalRecord {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Strength != records[j].Strength {
			return records[i].Strength > records[j].Strength
		}
		return records[i].Symbol < records[j].Symbol
	})
	if max > 0 && len(records) > max {
		records = records[:max]
	}
	return records
}

func averageVolume(bars []model.Bar) int64 {
	if len(bars) == 0 {
		return 0
	}
	var sum int64
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / int64(len(bars))
}
