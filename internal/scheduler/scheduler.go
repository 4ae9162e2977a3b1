package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"StockSentry/internal/cache"
	"StockSentry/internal/config"
	"StockSentry/internal/model"
	"StockSentry/internal/notifier"
	"StockSentry/internal/scanner"
	"StockSentry/internal/universe"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler manages the daily scan cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Scanner *scanner.Scanner
	Store   *cache.Store
	Email   *notifier.EmailSender
	MOTD    *notifier.MOTDWriter
	Cfg     *config.Config
	Ctx     context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, store *cache.Store, email *notifier.EmailSender, motd *notifier.MOTDWriter, cfg *config.Config) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Scanner: sc,
		Store:   store,
		Email:   email,
		MOTD:    motd,
		Cfg:     cfg,
		Ctx:     ctx,
	}
}

// RegisterAll registers the EMA and SMA scan tasks.
func (s *Scheduler) RegisterAll(emaCron, smaCron string) error {
	if _, err := s.Cron.AddFunc(emaCron, s.emaTask); err != nil {
		return fmt.Errorf("register EMA task: %w", err)
	}
	if _, err := s.Cron.AddFunc(smaCron, s.smaTask); err != nil {
		return fmt.Errorf("register SMA task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunEMANow executes the EMA scan immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunEMANow() { s.emaTask() }

// RunSMANow executes the SMA scan immediately.
func (s *Scheduler) RunSMANow() { s.smaTask() }

func (s *Scheduler) emaTask() {
	s.runScan(scanner.EMAFamily(s.Cfg.Scan))
}

func (s *Scheduler) smaTask() {
	s.runScan(scanner.SMAFamily(s.Cfg.Scan))
}

func (s *Scheduler) runScan(fam scanner.Family) {
	scanID := uuid.NewString()
	scanDate := time.Now().UTC().Truncate(24 * time.Hour)
	log.Printf("[INFO] running %s scan %s for %s", fam.Source, scanID, scanDate.Format("2006-01-02"))

	ctx, cancel := context.WithTimeout(s.Ctx, time.Duration(s.Cfg.Scan.ScanTimeoutMinutes)*time.Minute)
	defer cancel()

	symbols := s.Cfg.Scan.Symbols
	if len(symbols) == 0 {
		symbols = universe.Default()
	}

	records := s.Scanner.Scan(ctx, symbols, fam, scanDate)
	s.logSummary(fam, records)

	if s.Store != nil {
		if err := s.Store.RecordSignals(scanID, records); err != nil {
			log.Printf("[ERROR] record %s signals: %v", fam.Source, err)
		}
	}

	if s.Email.Configured() {
		subject := fmt.Sprintf("StockSentry %s scan %s: %d signal(s)",
			fam.Source, scanDate.Format("2006-01-02"), len(records))
		body := notifier.FormatEmail(fam.Source, scanDate, records, s.Cfg.Scan.EmailCap)
		if err := s.Email.SendWithRetry(ctx, subject, body, 3); err != nil {
			log.Printf("[ERROR] send %s report: %v", fam.Source, err)
		}
	}

	if s.MOTD.Configured() {
		banner := notifier.FormatMOTD(fam.Source, scanDate, records, s.Cfg.Scan.MOTDCap)
		if err := s.MOTD.Write(banner); err != nil {
			log.Printf("[ERROR] write motd: %v", err)
		}
	}
}

func (s *Scheduler) logSummary(fam scanner.Family, records []model.SignalRecord) {
	if len(records) == 0 {
		log.Printf("[INFO] %s scan complete: no signals", fam.Source)
		return
	}
	var bullish, bearish int
	var total float64
	for _, rec := range records {
		if rec.Type == model.SignalBullish {
			bullish++
		} else {
			bearish++
		}
		total += rec.Strength
	}
	log.Printf("[INFO] %s scan complete: %d signals (%d bullish, %d bearish), avg strength %.1f",
		fam.Source, len(records), bullish, bearish, total/float64(len(records)))
}
