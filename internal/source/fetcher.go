package source

import (
	"context"
	"errors"
	"time"

	"StockSentry/internal/model"
)

// Failure classes shared by all fetchers. Transport errors are wrapped
// with context instead; callers distinguish the rest with errors.Is.
var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrRateLimited    = errors.New("rate limited by remote service")
	ErrMalformed      = errors.New("malformed response")
	ErrNoData         = errors.New("no data returned")
)

// Fetcher defines the single capability a historical data provider must
// offer. Fetchers are pure transport adapters: no caching, no fallback.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	Name() string
}
