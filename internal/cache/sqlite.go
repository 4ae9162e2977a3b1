package cache

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockSentry/internal/model"
)

const dayFormat = "2006-01-02"

// Store persists fetched bars, derived indicator values, and the
// append-only signal history in a SQLite database. Bars and indicators are
// keyed so that a re-fetch simply overwrites (price data for a finalized
// trading day is immutable, so last write wins).
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] cache opened: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stock_bars (
			symbol TEXT NOT NULL,
			date   TEXT NOT NULL,
			open   REAL NOT NULL,
			high   REAL NOT NULL,
			low    REAL NOT NULL,
			close  REAL NOT NULL,
			volume INTEGER NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,

		`CREATE TABLE IF NOT EXISTS indicator_values (
			symbol    TEXT NOT NULL,
			date      TEXT NOT NULL,
			indicator TEXT NOT NULL,
			period    INTEGER NOT NULL,
			value     REAL NOT NULL,
			PRIMARY KEY (symbol, date, indicator, period)
		)`,

		`CREATE TABLE IF NOT EXISTS daily_signals (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id        TEXT NOT NULL,
			scan_date      TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			signal_type    TEXT NOT NULL,
			signal_source  TEXT NOT NULL,
			signal_date    TEXT NOT NULL,
			price          REAL,
			rsi            REAL,
			fast_period    INTEGER,
			slow_period    INTEGER,
			fast_value     REAL,
			slow_value     REAL,
			strength       REAL,
			recommendation TEXT,
			created_at     INTEGER NOT NULL,
			UNIQUE (scan_date, symbol, signal_source)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_scan_date ON daily_signals(scan_date)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// BarRange returns the cached bars for the symbol within [start, end],
// ascending by date. An empty slice means the range is not cached; callers
// decide whether partial coverage is enough via their own minimum-bar
// requirement.
func (s *Store) BarRange(symbol string, start, end time.Time) ([]model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT date, open, high, low, close, volume FROM stock_bars
		 WHERE symbol = ? AND date >= ? AND date <= ?
		 ORDER BY date`,
		symbol, start.Format(dayFormat), end.Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var dateStr string
		b := model.Bar{Symbol: symbol}
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		day, err := time.Parse(dayFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", dateStr, err)
		}
		b.Date = day
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// SaveBars upserts bars into the cache in one transaction.
func (s *Store) SaveBars(bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO stock_bars (symbol, date, open, high, low, close, volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(b.Symbol, b.Day().Format(dayFormat), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert bar %s %s: %w", b.Symbol, b.Day().Format(dayFormat), err)
		}
	}
	return tx.Commit()
}

// SaveIndicator upserts one derived indicator value keyed by
// (symbol, date, indicator, period).
func (s *Store) SaveIndicator(symbol string, date time.Time, indicator string, period int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO indicator_values (symbol, date, indicator, period, value)
		 VALUES (?, ?, ?, ?, ?)`,
		symbol, date.Format(dayFormat), indicator, period, value,
	)
	return err
}

// RecordSignals appends the scan's signal records to the history log.
// The (scan_date, symbol, signal_source) key makes a re-run of the same
// day's scan overwrite rather than duplicate.
func (s *Store) RecordSignals(scanID string, records []model.SignalRecord) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO daily_signals
		 (scan_id, scan_date, symbol, signal_type, signal_source, signal_date,
		  price, rsi, fast_period, slow_period, fast_value, slow_value,
		  strength, recommendation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, r := range records {
		_, err := stmt.Exec(
			scanID, r.ScanDate.Format(dayFormat), r.Symbol, string(r.Type), string(r.Source),
			r.CrossDate.Format(dayFormat), r.Price, r.RSI, r.FastPeriod, r.SlowPeriod,
			r.FastValue, r.SlowValue, r.Strength, string(r.Recommendation), now,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert signal %s: %w", r.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecentSignals returns signals recorded in the last daysBack days,
// newest scan first, strongest first within a scan.
func (s *Store) RecentSignals(daysBack int) ([]model.SignalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -daysBack).Format(dayFormat)
	rows, err := s.db.Query(
		`SELECT scan_date, symbol, signal_type, signal_source, signal_date,
		        price, rsi, fast_period, slow_period, fast_value, slow_value,
		        strength, recommendation
		 FROM daily_signals
		 WHERE scan_date >= ?
		 ORDER BY scan_date DESC, strength DESC`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var records []model.SignalRecord
	for rows.Next() {
		var r model.SignalRecord
		var scanDate, sigType, sigSource, sigDate, rec string
		err := rows.Scan(&scanDate, &r.Symbol, &sigType, &sigSource, &sigDate,
			&r.Price, &r.RSI, &r.FastPeriod, &r.SlowPeriod, &r.FastValue, &r.SlowValue,
			&r.Strength, &rec)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if r.ScanDate, err = time.Parse(dayFormat, scanDate); err != nil {
			return nil, fmt.Errorf("parse scan date: %w", err)
		}
		if r.CrossDate, err = time.Parse(dayFormat, sigDate); err != nil {
			return nil, fmt.Errorf("parse signal date: %w", err)
		}
		r.Type = model.SignalType(sigType)
		r.Source = model.SignalSource(sigSource)
		r.Recommendation = model.Recommendation(rec)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	log.Println("[INFO] closing cache")
	return s.db.Close()
}
