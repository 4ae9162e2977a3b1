package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FamilyConfig holds the parameters of one moving-average scan family.
type FamilyConfig struct {
	FastPeriod   int `yaml:"fast_period"`
	SlowPeriod   int `yaml:"slow_period"`
	LookbackDays int `yaml:"lookback_days"`
	HistoryDays  int `yaml:"history_days"`
}

// ScanConfig holds everything the scanner needs: the candidate universe,
// eligibility gates, indicator settings, and output caps.
type ScanConfig struct {
	Symbols []string `yaml:"symbols"`

	PriceMin float64 `yaml:"price_min"`
	PriceMax float64 `yaml:"price_max"`

	// MinVolume is applied only when EnforceMinVolume is true. The filter
	// exists in the configuration but has historically not been applied;
	// enabling it is an explicit, visible behavior change.
	MinVolume        int64 `yaml:"min_volume"`
	EnforceMinVolume bool  `yaml:"enforce_min_volume"`

	MinBars int `yaml:"min_bars"`

	// MaxCandidates caps the price-qualifying universe before the full
	// scan. The cap depends on candidate-list order; it is deliberate and
	// tunable, not a hidden truncation.
	MaxCandidates int `yaml:"max_candidates"`

	MaxSignals int `yaml:"max_signals"`
	EmailCap   int `yaml:"email_cap"`
	MOTDCap    int `yaml:"motd_cap"`

	Workers            int `yaml:"workers"`
	ScanTimeoutMinutes int `yaml:"scan_timeout_minutes"`

	RSIPeriod       int     `yaml:"rsi_period"`
	RSIOversold     float64 `yaml:"rsi_oversold"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	RSILookbackDays int     `yaml:"rsi_lookback_days"`

	EMA FamilyConfig `yaml:"ema"`
	SMA FamilyConfig `yaml:"sma"`
}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		AlphaVantageKey   string `yaml:"alpha_vantage_key"`
		YahooRatePerSec   int    `yaml:"yahoo_rate_per_sec"`
		FallbackPerMinute int    `yaml:"fallback_per_minute"`
		FallbackPerDay    int    `yaml:"fallback_per_day"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Email struct {
		SMTPHost string   `yaml:"smtp_host"`
		SMTPPort int      `yaml:"smtp_port"`
		Username string   `yaml:"username"`
		Password string   `yaml:"password"`
		From     string   `yaml:"from"`
		To       []string `yaml:"to"`
	} `yaml:"email"`
	MOTD struct {
		Path string `yaml:"path"`
	} `yaml:"motd"`
	Schedule struct {
		EMACron string `yaml:"ema_cron"`
		SMACron string `yaml:"sma_cron"`
	} `yaml:"schedule"`
	Scan  ScanConfig `yaml:"scan"`
	Proxy string     `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error: env vars and
// defaults alone can configure a run.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.AlphaVantageKey = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.Password = v
	}
	if v := os.Getenv("MOTD_PATH"); v != "" {
		cfg.MOTD.Path = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_EMA"); v != "" {
		cfg.Schedule.EMACron = v
	}
	if v := os.Getenv("CRON_SMA"); v != "" {
		cfg.Schedule.SMACron = v
	}
	if v := os.Getenv("MAX_SIGNALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.MaxSignals = n
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.YahooRatePerSec == 0 {
		cfg.DataSource.YahooRatePerSec = 2
	}
	// Alpha Vantage free tier published limits. Never raise these beyond
	// what the service allows.
	if cfg.DataSource.FallbackPerMinute == 0 {
		cfg.DataSource.FallbackPerMinute = 5
	}
	if cfg.DataSource.FallbackPerDay == 0 {
		cfg.DataSource.FallbackPerDay = 500
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stocksentry.db"
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Schedule.EMACron == "" {
		cfg.Schedule.EMACron = "0 0 17 * * 1-5" // weekday evenings after close
	}
	if cfg.Schedule.SMACron == "" {
		cfg.Schedule.SMACron = "0 30 17 * * 1-5"
	}

	s := &cfg.Scan
	if s.PriceMin == 0 {
		s.PriceMin = 10.0
	}
	if s.PriceMax == 0 {
		s.PriceMax = 100.0
	}
	if s.MinVolume == 0 {
		s.MinVolume = 100000
	}
	if s.MinBars == 0 {
		s.MinBars = 30
	}
	if s.MaxCandidates == 0 {
		s.MaxCandidates = 20
	}
	if s.MaxSignals == 0 {
		s.MaxSignals = 20
	}
	if s.EmailCap == 0 {
		s.EmailCap = 10
	}
	if s.MOTDCap == 0 {
		s.MOTDCap = 5
	}
	if s.Workers == 0 {
		s.Workers = 4
	}
	if s.ScanTimeoutMinutes == 0 {
		s.ScanTimeoutMinutes = 30
	}
	if s.RSIPeriod == 0 {
		s.RSIPeriod = 14
	}
	if s.RSIOversold == 0 {
		s.RSIOversold = 30
	}
	if s.RSIOverbought == 0 {
		s.RSIOverbought = 70
	}
	if s.RSILookbackDays == 0 {
		s.RSILookbackDays = 5
	}
	if s.EMA.FastPeriod == 0 {
		s.EMA.FastPeriod = 10
	}
	if s.EMA.SlowPeriod == 0 {
		s.EMA.SlowPeriod = 20
	}
	if s.EMA.LookbackDays == 0 {
		s.EMA.LookbackDays = 5
	}
	if s.EMA.HistoryDays == 0 {
		s.EMA.HistoryDays = 60
	}
	if s.SMA.FastPeriod == 0 {
		s.SMA.FastPeriod = 49
	}
	if s.SMA.SlowPeriod == 0 {
		s.SMA.SlowPeriod = 200
	}
	if s.SMA.LookbackDays == 0 {
		s.SMA.LookbackDays = 14
	}
	if s.SMA.HistoryDays == 0 {
		s.SMA.HistoryDays = 320
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	s := c.Scan
	if s.PriceMin <= 0 || s.PriceMax <= s.PriceMin {
		return fmt.Errorf("scan price range [%.2f, %.2f] is invalid", s.PriceMin, s.PriceMax)
	}
	if s.EMA.FastPeriod < 5 || s.EMA.FastPeriod > 15 {
		return fmt.Errorf("ema.fast_period %d outside [5, 15]", s.EMA.FastPeriod)
	}
	if s.EMA.SlowPeriod < 15 || s.EMA.SlowPeriod > 30 {
		return fmt.Errorf("ema.slow_period %d outside [15, 30]", s.EMA.SlowPeriod)
	}
	if s.EMA.FastPeriod >= s.EMA.SlowPeriod {
		return fmt.Errorf("ema fast period %d must be below slow %d", s.EMA.FastPeriod, s.EMA.SlowPeriod)
	}
	if s.SMA.FastPeriod >= s.SMA.SlowPeriod {
		return fmt.Errorf("sma fast period %d must be below slow %d", s.SMA.FastPeriod, s.SMA.SlowPeriod)
	}
	if s.SMA.HistoryDays < s.SMA.SlowPeriod {
		return fmt.Errorf("sma.history_days %d cannot cover the %d-day slow average", s.SMA.HistoryDays, s.SMA.SlowPeriod)
	}
	if s.RSIOversold >= s.RSIOverbought {
		return fmt.Errorf("rsi thresholds inverted: oversold %.0f >= overbought %.0f", s.RSIOversold, s.RSIOverbought)
	}
	if c.DataSource.FallbackPerMinute > 5 || c.DataSource.FallbackPerDay > 500 {
		return fmt.Errorf("fallback quota exceeds the service's published limits (5/minute, 500/day)")
	}
	return nil
}
