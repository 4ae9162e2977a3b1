package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockSentry/internal/cache"
	"StockSentry/internal/config"
	"StockSentry/internal/marketdata"
	"StockSentry/internal/notifier"
	"StockSentry/internal/ratelimit"
	"StockSentry/internal/scanner"
	"StockSentry/internal/scheduler"
	"StockSentry/internal/source"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockSentry starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init SQLite store
	store, err := cache.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open store %s: %v", cfg.Database.SQLitePath, err)
	}
	defer store.Close()

	// Init limiter and fetchers. The fallback source keeps its published
	// free-tier quotas.
	primary := source.NewYahooFetcher(cfg.Proxy, cfg.DataSource.YahooRatePerSec)
	limiter := ratelimit.NewLimiter()

	var fallback source.Fetcher
	if cfg.DataSource.AlphaVantageKey != "" {
		av := source.NewAlphaVantageFetcher(cfg.DataSource.AlphaVantageKey, cfg.Proxy)
		limiter.SetQuota(av.Name(), cfg.DataSource.FallbackPerMinute, time.Minute)
		limiter.SetQuota(av.Name(), cfg.DataSource.FallbackPerDay, 24*time.Hour)
		fallback = av
		log.Printf("[INFO] fallback source: %s (%d/min, %d/day)",
			av.Name(), cfg.DataSource.FallbackPerMinute, cfg.DataSource.FallbackPerDay)
	} else {
		log.Println("[INFO] no fallback source configured")
	}
	log.Printf("[INFO] primary source: %s", primary.Name())

	// Init data manager and scanner
	mgr := marketdata.NewManager(store, limiter, primary, fallback)
	sc := scanner.NewScanner(mgr, store, cfg.Scan)

	// Init notifiers
	email := notifier.NewEmailSender(cfg.Email.SMTPHost, cfg.Email.SMTPPort,
		cfg.Email.Username, cfg.Email.Password, cfg.Email.From, cfg.Email.To)
	if !email.Configured() {
		log.Println("[INFO] email delivery not configured, reports will be logged only")
	}
	motd := &notifier.MOTDWriter{Path: cfg.MOTD.Path}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sc, store, email, motd, cfg)
	if err := sched.RegisterAll(cfg.Schedule.EMACron, cfg.Schedule.SMACron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing EMA scan now")
		go sched.RunEMANow()
	}

	log.Println("[INFO] StockSentry is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] StockSentry stopped")
}
