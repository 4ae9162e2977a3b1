package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"StockSentry/internal/model"
	"StockSentry/internal/ratelimit"
	"StockSentry/internal/source"
)

// ErrUnavailable is the definitive "no data" result: the cache could not
// cover the range and every permitted source failed. Never accompanies a
// partial series.
var ErrUnavailable = errors.New("stock data unavailable")

// BarCache is the slice of the cache the manager needs.
type BarCache interface {
	BarRange(symbol string, start, end time.Time) ([]model.Bar, error)
	SaveBars(bars []model.Bar) error
}

// Manager orchestrates cache lookup, source selection, and fallback.
// It returns either a validated bar series or ErrUnavailable.
type Manager struct {
	Cache    BarCache
	Limiter  *ratelimit.Limiter
	Primary  source.Fetcher
	Fallback source.Fetcher
}

// NewManager wires the manager. Fallback may be nil when no fallback
// source is configured.
func NewManager(c BarCache, l *ratelimit.Limiter, primary, fallback source.Fetcher) *Manager {
	return &Manager{
		Cache:    c,
		Limiter:  l,
		Primary:  primary,
		Fallback: fallback,
	}
}

// maxCacheAge is how far the newest cached bar may lag behind the
// requested end before the cache is considered stale. Covers weekends
// and single market holidays without forcing a refetch.
const maxCacheAge = 4 * 24 * time.Hour

// GetStockData returns daily bars for [start, end]. minBars is the
// coverage the caller needs from this range; cached data below it, or
// whose newest bar lags end by more than maxCacheAge, triggers a fetch.
// Long-range callers must pass their own minimum: a short-range scan
// filling the cache first must not starve a later scan that needs a
// deeper history over the same symbols. Cache hits skip the network
// entirely; otherwise the primary source is tried, then the fallback,
// each gated by the rate limiter. Any series returned has been
// validated: ascending dates, no duplicates, positive closes.
func (m *Manager) GetStockData(ctx context.Context, symbol string, start, end time.Time, minBars int) ([]model.Bar, error) {
	cached, err := m.Cache.BarRange(symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("cache lookup %s: %w", symbol, err)
	}
	if len(cached) >= minBars && cacheFresh(cached, end) {
		return cached, nil
	}

	for _, f := range []source.Fetcher{m.Primary, m.Fallback} {
		if f == nil {
			continue
		}
		if !m.Limiter.Allow(f.Name()) {
			log.Printf("[WARN] %s: rate limit reached for %s, skipping", symbol, f.Name())
			continue
		}
		bars, err := f.Fetch(ctx, symbol, start, end)
		if err != nil {
			log.Printf("[WARN] %s: fetch from %s failed: %v", symbol, f.Name(), err)
			continue
		}
		if err := ValidateBars(bars); err != nil {
			log.Printf("[WARN] %s: %s returned bad data: %v", symbol, f.Name(), err)
			continue
		}
		if err := m.Cache.SaveBars(bars); err != nil {
			// Data is still good; a cache write failure only costs a
			// re-fetch next run.
			log.Printf("[ERROR] %s: cache write failed: %v", symbol, err)
		}
		return bars, nil
	}

	return nil, fmt.Errorf("%s: %w", symbol, ErrUnavailable)
}

func cacheFresh(cached []model.Bar, end time.Time) bool {
	if len(cached) == 0 {
		return false
	}
	return end.Sub(cached[len(cached)-1].Day()) <= maxCacheAge
}

// ValidateBars checks the series invariants: non-empty, strictly
// ascending dates, no duplicates, positive closing prices.
func ValidateBars(bars []model.Bar) error {
	if len(bars) == 0 {
		return errors.New("empty series")
	}
	for i, b := range bars {
		if b.Close <= 0 {
			return fmt.Errorf("non-positive close %.4f at %s", b.Close, b.Day().Format("2006-01-02"))
		}
		if i > 0 && !bars[i-1].Day().Before(b.Day()) {
			return fmt.Errorf("dates not strictly ascending at %s", b.Day().Format("2006-01-02"))
		}
	}
	return nil
}
