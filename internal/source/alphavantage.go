package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockSentry/internal/model"
)

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage
// TIME_SERIES_DAILY endpoint. Free-tier keys are limited to 5 calls per
// minute and 500 per day; the caller is expected to gate calls with the
// rate limiter, but the service may still reject us.
type AlphaVantageFetcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a fetcher with optional proxy support.
func NewAlphaVantageFetcher(apiKey, proxyURL string) *AlphaVantageFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlphaVantageFetcher{
		APIKey:  apiKey,
		BaseURL: "https://www.alphavantage.co",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avResponse covers the daily time series payload plus the service's
// inline error fields. "Note" carries the throttling message.
type avResponse struct {
	Series       map[string]map[string]string `json:"Time Series (Daily)"`
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
}

func (f *AlphaVantageFetcher) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&outputsize=full&apikey=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(f.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alphavantage: status %d", resp.StatusCode)
	}

	var payload avResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", ErrMalformed)
	}
	if payload.Note != "" || strings.Contains(payload.Information, "rate limit") {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, ErrRateLimited)
	}
	if payload.ErrorMessage != "" {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, ErrSymbolNotFound)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, ErrNoData)
	}

	bars := make([]model.Bar, 0, len(payload.Series))
	for dateStr, fields := range payload.Series {
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("alphavantage date %q: %w", dateStr, ErrMalformed)
		}
		if day.Before(start) || day.After(end) {
			continue
		}
		bar, err := parseAVBar(symbol, day, fields)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func parseAVBar(symbol string, day time.Time, fields map[string]string) (model.Bar, error) {
	get := func(key string) (float64, error) {
		raw, ok := fields[key]
		if !ok {
			return 0, fmt.Errorf("alphavantage missing %q: %w", key, ErrMalformed)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("alphavantage field %q: %w", key, ErrMalformed)
		}
		return v, nil
	}

	open, err := get("1. open")
	if err != nil {
		return model.Bar{}, err
	}
	high, err := get("2. high")
	if err != nil {
		return model.Bar{}, err
	}
	low, err := get("3. low")
	if err != nil {
		return model.Bar{}, err
	}
	closeP, err := get("4. close")
	if err != nil {
		return model.Bar{}, err
	}
	volume, err := get("5. volume")
	if err != nil {
		return model.Bar{}, err
	}

	return model.Bar{
		Symbol: symbol,
		Date:   day,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closeP,
		Volume: int64(volume),
	}, nil
}
